package paypal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuth is returned when the client credentials exchange fails.
	ErrAuth = errors.New("paypal: authentication failed")
	// ErrUnauthorized marks a 401 from a data endpoint; the token is stale.
	ErrUnauthorized = errors.New("paypal: unauthorized")
)

// FetchError describes a failed transaction search for one window.
type FetchError struct {
	Start      time.Time
	End        time.Time
	Page       int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("paypal: fetch %s..%s page %d: status=%d: %v",
			FormatTimestamp(e.Start), FormatTimestamp(e.End), e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("paypal: fetch %s..%s page %d: %v",
		FormatTimestamp(e.Start), FormatTimestamp(e.End), e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
