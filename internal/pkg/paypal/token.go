package paypal

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// tokenSkew renews a credential shortly before PayPal would reject it.
const tokenSkew = 60 * time.Second

type tokenRequester interface {
	RequestToken(ctx context.Context) (*Credential, error)
}

// TokenSource caches the credential and renews it on expiry or after
// Invalidate. Safe for concurrent use.
type TokenSource struct {
	client tokenRequester
	now    func() time.Time

	mu   sync.Mutex
	cred *Credential
}

func NewTokenSource(client tokenRequester) *TokenSource {
	return &TokenSource{client: client, now: time.Now}
}

// Token returns the cached credential or requests a new one. Concurrent
// callers wait for a single exchange.
func (s *TokenSource) Token(ctx context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred.Valid(s.now(), tokenSkew) {
		return s.cred, nil
	}

	cred, err := s.client.RequestToken(ctx)
	if err != nil {
		return nil, err
	}
	if s.cred == nil {
		log.Info("[PayPal] Obtained access token")
	} else {
		log.Info("[PayPal] Renewed access token")
	}
	s.cred = cred
	return cred, nil
}

// Invalidate drops the cached credential if it is still stale, so the next
// Token call re-authenticates.
func (s *TokenSource) Invalidate(stale *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stale == nil || s.cred == stale {
		s.cred = nil
	}
}
