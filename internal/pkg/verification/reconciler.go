package verification

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

// Fetcher returns the transactions recorded inside a window. Callers keep
// windows within the processor's range limit. On error it may still return
// the transactions read before the failure.
type Fetcher interface {
	Fetch(ctx context.Context, w Window) ([]Transaction, error)
}

type ReconcilerConfig struct {
	ResourceID string
	WindowSize time.Duration
	MaxWindows int
	Now        func() time.Time
}

// Reconciler walks backwards through contiguous windows until a purchase of
// the configured resource is found or the lookback is exhausted.
type Reconciler struct {
	fetcher    Fetcher
	resourceID string
	windowSize time.Duration
	maxWindows int
	now        func() time.Time
}

func NewReconciler(fetcher Fetcher, cfg ReconcilerConfig) *Reconciler {
	r := &Reconciler{
		fetcher:    fetcher,
		resourceID: cfg.ResourceID,
		windowSize: cfg.WindowSize,
		maxWindows: cfg.MaxWindows,
		now:        cfg.Now,
	}
	if r.windowSize <= 0 {
		r.windowSize = WindowSize
	}
	if r.maxWindows <= 0 {
		r.maxWindows = MaxWindows
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Reconcile searches for email. Fetch failures count as a miss for that
// window; only cancellation of ctx aborts the run early.
func (r *Reconciler) Reconcile(ctx context.Context, email string) (Outcome, error) {
	out := Outcome{State: StateSearching}
	end := r.now().UTC()
	count := 0

	for out.State == StateSearching {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		w := WindowEndingAt(end, r.windowSize)
		res := r.searchWindow(ctx, w, email)
		out.Windows = append(out.Windows, res)
		metrics.ObserveWindow(string(res.Status))

		if res.Status == WindowMatch {
			out.State = StateSuccess
			out.MatchedID = res.ResourceID
			break
		}

		end = w.Start
		count++
		if count >= r.maxWindows {
			out.State = StateExhausted
		}
	}

	return out, nil
}

func (r *Reconciler) searchWindow(ctx context.Context, w Window, email string) WindowResult {
	res := WindowResult{Window: w}

	txs, err := r.fetcher.Fetch(ctx, w)
	res.Transactions = len(txs)

	// A partial batch still counts when it holds the purchase.
	id, ok := MatchEmail(email, txs)
	switch {
	case ok && id != "" && id == r.resourceID:
		res.Status = WindowMatch
		res.ResourceID = id
		if err != nil {
			log.Warnf("[Reconcile] window %s matched on a partial fetch: %v", w, err)
		}
	case err != nil:
		log.Warnf("[Reconcile] window %s fetch failed: %v", w, err)
		res.Status = WindowError
		res.Err = err
	case !ok:
		res.Status = WindowNoMatch
	default:
		// The payer bought something else in this window; keep looking.
		res.Status = WindowMismatch
		res.ResourceID = id
	}
	return res
}
