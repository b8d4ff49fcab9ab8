package paypal

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/verification"
)

type pageFetcher interface {
	FetchTransactions(ctx context.Context, start, end time.Time, page int, cred *Credential) (*TransactionPage, error)
}

// Fetcher adapts the client to verification.Fetcher. It walks every page of
// a window up to maxPages and re-authenticates once when a token is rejected.
// When a later page fails, the pages already read are returned with the error.
type Fetcher struct {
	client   pageFetcher
	tokens   *TokenSource
	maxPages int
}

var _ verification.Fetcher = (*Fetcher)(nil)

func NewFetcher(client pageFetcher, tokens *TokenSource, maxPages int) *Fetcher {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Fetcher{client: client, tokens: tokens, maxPages: maxPages}
}

func (f *Fetcher) Fetch(ctx context.Context, w verification.Window) ([]verification.Transaction, error) {
	var out []verification.Transaction

	for page := 1; page <= f.maxPages; page++ {
		p, err := f.fetchPage(ctx, w, page)
		if err != nil {
			return out, err
		}
		out = append(out, p.Transactions()...)

		if p.TotalPages <= page {
			break
		}
		if page == f.maxPages {
			log.Warnf("[PayPal] window %s has %d pages, stopped after %d", w, p.TotalPages, f.maxPages)
		}
	}
	return out, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, w verification.Window, page int) (*TransactionPage, error) {
	cred, err := f.tokens.Token(ctx)
	if err != nil {
		return nil, &FetchError{Start: w.Start, End: w.End, Page: page, Err: err}
	}

	p, err := f.client.FetchTransactions(ctx, w.Start, w.End, page, cred)
	if !errors.Is(err, ErrUnauthorized) {
		return p, err
	}

	log.Info("[PayPal] access token rejected, re-authenticating")
	f.tokens.Invalidate(cred)
	cred, err = f.tokens.Token(ctx)
	if err != nil {
		return nil, &FetchError{Start: w.Start, End: w.End, Page: page, Err: err}
	}
	return f.client.FetchTransactions(ctx, w.Start, w.End, page, cred)
}
