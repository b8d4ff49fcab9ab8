package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

const (
	tokenPath        = "/v1/oauth2/token"
	transactionsPath = "/v1/reporting/transactions"

	defaultPageSize = 500
	maxBodyBytes    = 8 << 20
)

// Client talks to the PayPal REST API. Outgoing calls share one limiter.
type Client struct {
	ClientID     string
	ClientSecret string
	Endpoint     string
	PageSize     int

	HTTPClient *http.Client

	limiter *rate.Limiter
	now     func() time.Time
}

func NewClient(clientID, clientSecret, endpoint string) *Client {
	return &Client{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
		Endpoint:     strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		PageSize:     defaultPageSize,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
		now:     time.Now,
	}
}

func NewClientFromConfig(cfg config.PayPalConfig) *Client {
	c := NewClient(cfg.ClientID, cfg.ClientSecret, cfg.Endpoint)
	if cfg.PageSize > 0 {
		c.PageSize = cfg.PageSize
	}
	if cfg.Timeout > 0 {
		c.HTTPClient.Timeout = cfg.Timeout
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// RequestToken performs the client credentials grant.
func (c *Client) RequestToken(ctx context.Context) (*Credential, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("%w: PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET are not configured", ErrAuth)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req, "token")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrAuth, status, string(body))
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", ErrAuth, err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, fmt.Errorf("%w: token response without access_token", ErrAuth)
	}

	now := c.now().UTC()
	cred := &Credential{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		ObtainedAt:  now,
	}
	if out.ExpiresIn > 0 {
		cred.ExpiresAt = now.Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return cred, nil
}

// FetchTransactions requests a single page (1-based) of the transactions
// recorded between start and end. The caller keeps the range within the
// API's 31 day limit. A 401 wraps ErrUnauthorized.
func (c *Client) FetchTransactions(ctx context.Context, start, end time.Time, page int, cred *Credential) (*TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	fetchErr := func(status int, err error) error {
		return &FetchError{Start: start, End: end, Page: page, StatusCode: status, Err: err}
	}
	if cred == nil || cred.AccessToken == "" {
		return nil, fetchErr(0, ErrUnauthorized)
	}

	u, err := url.Parse(c.Endpoint + transactionsPath)
	if err != nil {
		return nil, fetchErr(0, err)
	}
	q := u.Query()
	q.Set("start_date", FormatTimestamp(start))
	q.Set("end_date", FormatTimestamp(end))
	q.Set("fields", "all")
	q.Set("page_size", strconv.Itoa(c.PageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fetchErr(0, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req, "transactions")
	if err != nil {
		return nil, fetchErr(status, err)
	}
	if status == http.StatusUnauthorized {
		return nil, fetchErr(status, ErrUnauthorized)
	}
	if status < 200 || status >= 300 {
		return nil, fetchErr(status, fmt.Errorf("body=%s", string(body)))
	}

	var out TransactionPage
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fetchErr(status, fmt.Errorf("decode transactions: %w", err))
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, endpoint string) (int, []byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return 0, nil, err
	}

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.ObservePayPalRequest(endpoint, 0, time.Since(started))
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObservePayPalRequest(endpoint, resp.StatusCode, time.Since(started))
	if err != nil {
		return resp.StatusCode, nil, errors.Join(errors.New("read response body"), err)
	}
	return resp.StatusCode, body, nil
}
