package paypal

import (
	"time"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

// TimestampLayout is the ISO-8601 form the reporting API accepts.
const TimestampLayout = "2006-01-02T15:04:05Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Credential is the bearer token shared by all fetches.
type Credential struct {
	AccessToken string
	TokenType   string
	ObtainedAt  time.Time
	// ExpiresAt is zero when the server did not send expires_in.
	ExpiresAt time.Time
}

// Valid reports whether the credential can still be used at now, keeping
// skew as margin before the expiry.
func (c *Credential) Valid(now time.Time, skew time.Duration) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(skew).Before(c.ExpiresAt)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AppID       string `json:"app_id"`
	Scope       string `json:"scope"`
}

// TransactionPage is one page of GET /v1/reporting/transactions.
type TransactionPage struct {
	Details    []TransactionDetail `json:"transaction_details"`
	AccountID  string              `json:"account_number"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Page       int                 `json:"page"`
	TotalItems int                 `json:"total_items"`
	TotalPages int                 `json:"total_pages"`
}

type TransactionDetail struct {
	TransactionInfo TransactionInfo `json:"transaction_info"`
	PayerInfo       PayerInfo       `json:"payer_info"`
}

type TransactionInfo struct {
	TransactionID          string  `json:"transaction_id"`
	TransactionEventCode   string  `json:"transaction_event_code"`
	TransactionStatus      string  `json:"transaction_status"`
	TransactionInitiation  string  `json:"transaction_initiation_date"`
	CustomField            *string `json:"custom_field"`
	TransactionSubject     string  `json:"transaction_subject"`
	TransactionNote        string  `json:"transaction_note"`
	InvoiceID              string  `json:"invoice_id"`
	PayPalReferenceID      string  `json:"paypal_reference_id"`
	PayPalReferenceIDType  string  `json:"paypal_reference_id_type"`
	ProtectionEligibility  string  `json:"protection_eligibility"`
	TransactionUpdatedDate string  `json:"transaction_updated_date"`
}

type PayerInfo struct {
	AccountID    string  `json:"account_id"`
	EmailAddress *string `json:"email_address"`
	PayerStatus  string  `json:"payer_status"`
	CountryCode  string  `json:"country_code"`
}

// Transactions converts the page into the matcher's input, keeping the
// order the API returned.
func (p *TransactionPage) Transactions() []verification.Transaction {
	if p == nil {
		return nil
	}
	out := make([]verification.Transaction, 0, len(p.Details))
	for _, d := range p.Details {
		out = append(out, verification.Transaction{
			PayerEmail:  d.PayerInfo.EmailAddress,
			CustomField: d.TransactionInfo.CustomField,
		})
	}
	return out
}
