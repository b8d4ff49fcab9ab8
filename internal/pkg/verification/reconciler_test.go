package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// stubFetcher answers each call from batches in order and records windows.
type stubFetcher struct {
	mu      sync.Mutex
	batches map[int][]Transaction
	errs    map[int]error
	windows []Window
	onFetch func(call int)
}

func (f *stubFetcher) Fetch(_ context.Context, w Window) ([]Transaction, error) {
	f.mu.Lock()
	call := len(f.windows)
	f.windows = append(f.windows, w)
	onFetch := f.onFetch
	f.mu.Unlock()

	if onFetch != nil {
		onFetch(call)
	}
	return f.batches[call], f.errs[call]
}

func (f *stubFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func newTestReconciler(f Fetcher) *Reconciler {
	return NewReconciler(f, ReconcilerConfig{
		ResourceID: "42",
		Now:        func() time.Time { return fixedNow },
	})
}

func TestReconcileExhaustsAfterMaxWindows(t *testing.T) {
	f := &stubFetcher{}
	out, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, StateExhausted, out.State)
	assert.Equal(t, MaxWindows, f.calls())
	assert.Len(t, out.Windows, MaxWindows)
}

func TestReconcileStopsOnMatch(t *testing.T) {
	f := &stubFetcher{batches: map[int][]Transaction{
		2: {tx("A@B.com", "user|42")},
	}}
	out, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "42", out.MatchedID)
	assert.Equal(t, 3, f.calls())
}

func TestReconcileWindowsAreContiguous(t *testing.T) {
	f := &stubFetcher{}
	_, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")
	require.NoError(t, err)

	require.Len(t, f.windows, MaxWindows)
	assert.Equal(t, fixedNow, f.windows[0].End)
	for i, w := range f.windows {
		assert.Equal(t, WindowSize, w.End.Sub(w.Start), "window %d", i)
		assert.LessOrEqual(t, w.End.Sub(w.Start), 31*24*time.Hour)
		if i > 0 {
			assert.Equal(t, f.windows[i-1].Start, w.End, "window %d", i)
		}
	}
}

func TestReconcileContinuesPastOtherResource(t *testing.T) {
	f := &stubFetcher{batches: map[int][]Transaction{
		0: {tx("a@b.com", "user|99")},
		1: {tx("a@b.com", "user|")},
		4: {tx("a@b.com", "user|42")},
	}}
	out, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, 5, f.calls())
	assert.Equal(t, WindowMismatch, out.Windows[0].Status)
	assert.Equal(t, "99", out.Windows[0].ResourceID)
	assert.Equal(t, WindowMismatch, out.Windows[1].Status)
	assert.Equal(t, WindowNoMatch, out.Windows[2].Status)
}

func TestReconcileAbsorbsFetchErrors(t *testing.T) {
	fetchErr := errors.New("boom")
	f := &stubFetcher{
		errs:    map[int]error{0: fetchErr, 1: fetchErr},
		batches: map[int][]Transaction{2: {tx("a@b.com", "x|42")}},
	}
	out, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, WindowError, out.Windows[0].Status)
	assert.ErrorIs(t, out.Windows[0].Err, fetchErr)
}

func TestReconcileMatchesPartialBatch(t *testing.T) {
	fetchErr := errors.New("page 2: status=500")
	f := &stubFetcher{
		errs: map[int]error{0: fetchErr, 1: fetchErr},
		batches: map[int][]Transaction{
			0: {tx("other@b.com", "x|42")},
			1: {tx("a@b.com", "x|42")},
		},
	}
	out, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, 2, f.calls())
	assert.Equal(t, WindowError, out.Windows[0].Status)
	assert.Equal(t, 1, out.Windows[0].Transactions)
	assert.Equal(t, WindowMatch, out.Windows[1].Status)
	assert.Equal(t, "42", out.MatchedID)
}

func TestReconcileAllFetchesFail(t *testing.T) {
	errs := make(map[int]error, MaxWindows)
	for i := 0; i < MaxWindows; i++ {
		errs[i] = errors.New("unavailable")
	}
	f := &stubFetcher{errs: errs}
	out, err := newTestReconciler(f).Reconcile(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, StateExhausted, out.State)
	assert.Equal(t, MaxWindows, f.calls())
}

func TestReconcileStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &stubFetcher{}
	f.onFetch = func(call int) {
		if call == 4 {
			cancel()
		}
	}

	out, err := newTestReconciler(f).Reconcile(ctx, "a@b.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateSearching, out.State)
	assert.Equal(t, 5, f.calls())
}

func TestReconcilerCustomBounds(t *testing.T) {
	f := &stubFetcher{}
	r := NewReconciler(f, ReconcilerConfig{
		ResourceID: "42",
		WindowSize: 24 * time.Hour,
		MaxWindows: 3,
		Now:        func() time.Time { return fixedNow },
	})

	out, err := r.Reconcile(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, out.State)
	require.Len(t, f.windows, 3)
	assert.Equal(t, fixedNow.Add(-72*time.Hour), f.windows[2].Start)
}
