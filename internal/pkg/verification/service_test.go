package verification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/ledger"
)

type memLedger struct {
	mu      sync.Mutex
	emails  map[string]bool
	addErr  error
	readErr error
	adds    int
}

func newMemLedger(emails ...string) *memLedger {
	l := &memLedger{emails: map[string]bool{}}
	for _, e := range emails {
		l.emails[strings.ToLower(e)] = true
	}
	return l
}

func (l *memLedger) Contains(_ context.Context, email string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return false, l.readErr
	}
	return l.emails[strings.ToLower(email)], nil
}

func (l *memLedger) Add(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.adds++
	if l.addErr != nil {
		return l.addErr
	}
	l.emails[strings.ToLower(email)] = true
	return nil
}

func (l *memLedger) has(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.emails[strings.ToLower(email)]
}

type fakeGranter struct {
	mu       sync.Mutex
	holders  map[string]bool
	grants   int
	grantErr error
	checkErr error
}

func newFakeGranter(holders ...string) *fakeGranter {
	g := &fakeGranter{holders: map[string]bool{}}
	for _, h := range holders {
		g.holders[h] = true
	}
	return g
}

func (g *fakeGranter) HasRole(_ context.Context, id Identity) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holders[id.UserID], g.checkErr
}

func (g *fakeGranter) GrantRole(_ context.Context, id Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grantErr != nil {
		return g.grantErr
	}
	g.grants++
	g.holders[id.UserID] = true
	return nil
}

func (g *fakeGranter) grantCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.grants
}

var member = Identity{GuildID: "1", UserID: "100", Name: "member"}

func matchingFetcher() *stubFetcher {
	return &stubFetcher{batches: map[int][]Transaction{0: {tx("a@b.com", "user|42")}}}
}

func TestVerifySuccess(t *testing.T) {
	l := newMemLedger()
	g := newFakeGranter()
	svc := NewService(l, g, newTestReconciler(matchingFetcher()), time.Minute)

	res, err := svc.Verify(context.Background(), "A@B.com", member)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, res.Status)
	assert.Equal(t, MessageVerified, res.Message())
	assert.NotEmpty(t, res.AttemptID)
	assert.Equal(t, 1, g.grantCount())
	assert.True(t, l.has("a@b.com"))
}

func TestVerifyAlreadyHasRole(t *testing.T) {
	f := matchingFetcher()
	l := newMemLedger()
	svc := NewService(l, newFakeGranter(member.UserID), newTestReconciler(f), 0)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyVerified, res.Status)
	assert.Equal(t, MessageAlreadyVerified, res.Message())
	assert.Zero(t, f.calls())
	assert.Zero(t, l.adds)
}

func TestVerifyEmailAlreadyUsed(t *testing.T) {
	f := matchingFetcher()
	g := newFakeGranter()
	svc := NewService(newMemLedger("a@b.com"), g, newTestReconciler(f), 0)

	res, err := svc.Verify(context.Background(), "A@B.COM", member)
	require.NoError(t, err)
	assert.Equal(t, StatusEmailUsed, res.Status)
	assert.Equal(t, MessageEmailUsed, res.Message())
	assert.Zero(t, f.calls())
	assert.Zero(t, g.grantCount())
}

func TestVerifyNoPurchase(t *testing.T) {
	f := &stubFetcher{}
	l := newMemLedger()
	g := newFakeGranter()
	svc := NewService(l, g, newTestReconciler(f), 0)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, MessageFailed, res.Message())
	assert.Equal(t, StateExhausted, res.Outcome.State)
	assert.Equal(t, MaxWindows, f.calls())
	assert.Zero(t, g.grantCount())
	assert.Zero(t, l.adds)
}

func TestVerifyRejectsBlankEmail(t *testing.T) {
	blankPayer := &stubFetcher{batches: map[int][]Transaction{0: {tx("", "user|42")}}}
	l := newMemLedger()
	g := newFakeGranter()
	svc := NewService(l, g, newTestReconciler(blankPayer), 0)

	for _, email := range []string{"", "   ", "\t\n"} {
		res, err := svc.Verify(context.Background(), email, member)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
	}
	assert.Zero(t, blankPayer.calls())
	assert.Zero(t, g.grantCount())
	assert.Zero(t, l.adds)

	_, err := svc.Search(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyEmail)
	assert.Zero(t, blankPayer.calls())
}

func TestVerifyGrantFailureSkipsLedger(t *testing.T) {
	l := newMemLedger()
	g := newFakeGranter()
	g.grantErr = errors.New("missing permissions")
	svc := NewService(l, g, newTestReconciler(matchingFetcher()), 0)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	assert.ErrorIs(t, err, ErrGrant)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Zero(t, l.adds)
	assert.False(t, l.has("a@b.com"))
}

func TestVerifyLedgerWriteFailureAfterGrant(t *testing.T) {
	l := newMemLedger()
	l.addErr = ledger.ErrWrite
	g := newFakeGranter()
	svc := NewService(l, g, newTestReconciler(matchingFetcher()), 0)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	assert.ErrorIs(t, err, ledger.ErrWrite)
	assert.Equal(t, StatusVerified, res.Status)
	assert.Equal(t, 1, g.grantCount())
}

func TestVerifyRoleCheckFailure(t *testing.T) {
	f := matchingFetcher()
	g := newFakeGranter()
	g.checkErr = errors.New("discord unavailable")
	svc := NewService(newMemLedger(), g, newTestReconciler(f), 0)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Zero(t, f.calls())
}

func TestVerifyLedgerReadFailure(t *testing.T) {
	f := matchingFetcher()
	l := newMemLedger()
	l.readErr = ledger.ErrRead
	svc := NewService(l, newFakeGranter(), newTestReconciler(f), 0)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	assert.ErrorIs(t, err, ledger.ErrRead)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Zero(t, f.calls())
}

func TestVerifyTimeout(t *testing.T) {
	f := &stubFetcher{}
	f.onFetch = func(int) { time.Sleep(5 * time.Millisecond) }
	svc := NewService(newMemLedger(), newFakeGranter(), newTestReconciler(f), 20*time.Millisecond)

	res, err := svc.Verify(context.Background(), "a@b.com", member)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Less(t, f.calls(), MaxWindows)
}

func TestVerifyConcurrentSameEmail(t *testing.T) {
	l := newMemLedger()
	g := newFakeGranter()
	svc := NewService(l, g, newTestReconciler(&stubFetcher{
		batches: map[int][]Transaction{
			0: {tx("a@b.com", "user|42")},
			1: {tx("a@b.com", "user|42")},
		},
	}), 0)

	ids := []Identity{
		{GuildID: "1", UserID: "100"},
		{GuildID: "1", UserID: "200"},
	}
	results := make([]Result, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id Identity) {
			defer wg.Done()
			res, err := svc.Verify(context.Background(), "a@b.com", id)
			assert.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	statuses := []Status{results[0].Status, results[1].Status}
	assert.ElementsMatch(t, []Status{StatusVerified, StatusEmailUsed}, statuses)
	assert.Equal(t, 1, g.grantCount())
	assert.Zero(t, svc.locks.len())
}

func TestSearchSkipsGate(t *testing.T) {
	l := newMemLedger("a@b.com")
	g := newFakeGranter()
	svc := NewService(l, g, newTestReconciler(matchingFetcher()), 0)

	out, err := svc.Search(context.Background(), " a@b.com ")
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Zero(t, g.grantCount())
}
