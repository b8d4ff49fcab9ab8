package verification

import (
	"fmt"
	"time"
)

const (
	// WindowSize stays below PayPal's 31 day limit per reporting request.
	WindowSize = 30 * 24 * time.Hour
	// MaxWindows bounds the lookback to roughly three years of history.
	MaxWindows = 36
)

// Window is one bounded range submitted to the transaction search.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowEndingAt returns the window of the given size that ends at end.
func WindowEndingAt(end time.Time, size time.Duration) Window {
	return Window{Start: end.Add(-size), End: end}
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339))
}

// Transaction carries the two fields the matcher needs. Nil means the
// processor omitted the field.
type Transaction struct {
	PayerEmail  *string
	CustomField *string
}

// State of a reconciliation run.
type State string

const (
	StateSearching State = "searching"
	StateSuccess   State = "success"
	StateExhausted State = "exhausted"
)

// WindowStatus classifies the result of searching a single window.
type WindowStatus string

const (
	WindowNoMatch  WindowStatus = "no_match"
	WindowMismatch WindowStatus = "mismatch"
	WindowMatch    WindowStatus = "match"
	WindowError    WindowStatus = "error"
)

type WindowResult struct {
	Window       Window
	Status       WindowStatus
	ResourceID   string
	Transactions int
	Err          error
}

// Outcome of one Reconciler run.
type Outcome struct {
	State     State
	MatchedID string
	Windows   []WindowResult
}

func (o Outcome) Success() bool {
	return o.State == StateSuccess
}

// Identity is the chat-platform member requesting verification.
type Identity struct {
	GuildID string
	UserID  string
	Name    string
}

func (i Identity) String() string {
	if i.Name == "" {
		return i.UserID
	}
	return fmt.Sprintf("%s (%s)", i.Name, i.UserID)
}

// Status is the terminal, user-visible result of a verification request.
type Status string

const (
	StatusAlreadyVerified Status = "already_verified"
	StatusEmailUsed       Status = "email_already_used"
	StatusVerified        Status = "verified"
	StatusFailed          Status = "failed"
)

const (
	MessageAlreadyVerified = "You have already verified your purchase!"
	MessageEmailUsed       = "This email has already verified a purchase!"
	MessageVerified        = "Successfully verified PayPal purchase!"
	MessageFailed          = "Failed to verify PayPal purchase."
)

// Message returns the short text shown to the member.
func (s Status) Message() string {
	switch s {
	case StatusAlreadyVerified:
		return MessageAlreadyVerified
	case StatusEmailUsed:
		return MessageEmailUsed
	case StatusVerified:
		return MessageVerified
	default:
		return MessageFailed
	}
}

type Result struct {
	AttemptID string
	Status    Status
	Outcome   Outcome
}

func (r Result) Message() string {
	return r.Status.Message()
}
