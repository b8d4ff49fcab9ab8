package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCounters(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(verificationsTotal.WithLabelValues("verified"))
	ObserveVerification("verified")
	assert.Equal(t, before+1, testutil.ToFloat64(verificationsTotal.WithLabelValues("verified")))

	beforeErr := testutil.ToFloat64(ledgerWritesTotal.WithLabelValues("file", "error"))
	ObserveLedgerWrite("file", errors.New("disk full"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(ledgerWritesTotal.WithLabelValues("file", "error")))

	ObserveWindow("no_match")
	ObservePayPalRequest("transactions", 200, 120*time.Millisecond)
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	ObserveWindow("match")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "verifybot_reconcile_windows_total")
}
