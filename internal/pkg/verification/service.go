package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/ledger"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

var (
	// ErrGrant wraps failures of the chat platform's role assignment.
	ErrGrant = errors.New("verification: role grant failed")
	// ErrEmptyEmail is returned by Search for a blank address.
	ErrEmptyEmail = errors.New("verification: empty email")
)

// Ledger records emails that already completed a verification.
type Ledger interface {
	Contains(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string) error
}

// RoleGranter checks and assigns the configured role on the chat platform.
type RoleGranter interface {
	HasRole(ctx context.Context, id Identity) (bool, error)
	GrantRole(ctx context.Context, id Identity) error
}

// Service gates the reconciler with the role and ledger pre-checks and
// performs the grant on success.
type Service struct {
	ledger     Ledger
	granter    RoleGranter
	reconciler *Reconciler
	timeout    time.Duration
	locks      keyedMutex
}

// NewService wires the gate. A zero timeout leaves the reconciler bounded
// only by the caller's context.
func NewService(l Ledger, granter RoleGranter, reconciler *Reconciler, timeout time.Duration) *Service {
	return &Service{
		ledger:     l,
		granter:    granter,
		reconciler: reconciler,
		timeout:    timeout,
	}
}

// Verify runs one verification request. The returned error is for logging;
// Result.Status is always set and decides the message shown to the member.
// A ledger write failure after a granted role yields StatusVerified together
// with an error wrapping ledger.ErrWrite.
func (s *Service) Verify(ctx context.Context, email string, id Identity) (Result, error) {
	res := Result{AttemptID: uuid.NewString(), Status: StatusFailed}
	email = strings.TrimSpace(email)
	log.Infof("[Verify] %s requested verification for %q (attempt=%s)", id, email, res.AttemptID)

	if email == "" {
		log.Warnf("[Verify] %s sent an empty email (attempt=%s)", id, res.AttemptID)
		return s.finish(res, id), nil
	}

	// Held until the ledger append so two members cannot both pass the
	// pre-check for the same email.
	unlock := s.locks.Lock(ledger.NormalizeEmail(email))
	defer unlock()

	hasRole, err := s.granter.HasRole(ctx, id)
	if err != nil {
		return s.finish(res, id), fmt.Errorf("check role for %s: %w", id, err)
	}
	if hasRole {
		res.Status = StatusAlreadyVerified
		log.Infof("[Verify] %s already has the role (attempt=%s)", id, res.AttemptID)
		return s.finish(res, id), nil
	}

	used, err := s.ledger.Contains(ctx, email)
	if err != nil {
		return s.finish(res, id), fmt.Errorf("ledger lookup: %w", err)
	}
	if used {
		res.Status = StatusEmailUsed
		log.Warnf("[Verify] %s used an email that was already verified (attempt=%s)", id, res.AttemptID)
		return s.finish(res, id), nil
	}

	searchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outcome, err := s.reconciler.Reconcile(searchCtx, email)
	res.Outcome = outcome
	if err != nil {
		return s.finish(res, id), fmt.Errorf("reconcile: %w", err)
	}
	if !outcome.Success() {
		return s.finish(res, id), nil
	}

	if err := s.granter.GrantRole(ctx, id); err != nil {
		return s.finish(res, id), fmt.Errorf("%w: %v", ErrGrant, err)
	}

	res.Status = StatusVerified
	if err := s.ledger.Add(ctx, email); err != nil {
		return s.finish(res, id), fmt.Errorf("record %q after grant: %w", email, err)
	}
	return s.finish(res, id), nil
}

// Search runs only the reconciliation part, without pre-checks or grant.
func (s *Service) Search(ctx context.Context, email string) (Outcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Outcome{}, ErrEmptyEmail
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.reconciler.Reconcile(ctx, email)
}

func (s *Service) finish(res Result, id Identity) Result {
	metrics.ObserveVerification(string(res.Status))
	switch res.Status {
	case StatusVerified:
		log.Infof("[Verify] %s successfully verified their purchase (attempt=%s, windows=%d)", id, res.AttemptID, len(res.Outcome.Windows))
	case StatusFailed:
		log.Infof("[Verify] %s failed to verify their purchase (attempt=%s, windows=%d)", id, res.AttemptID, len(res.Outcome.Windows))
	}
	return res
}
