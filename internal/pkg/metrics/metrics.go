package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifybot_verifications_total",
			Help: "Verification requests by terminal status.",
		},
		[]string{"status"},
	)

	windowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifybot_reconcile_windows_total",
			Help: "Searched transaction windows by result.",
		},
		[]string{"result"},
	)

	paypalRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "verifybot_paypal_request_duration_seconds",
			Help:    "PayPal API latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	ledgerWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifybot_ledger_writes_total",
			Help: "Ledger appends by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	registerOnce sync.Once
)

// Init registers the collectors in the default registry. Safe to call twice.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(verificationsTotal, windowsTotal, paypalRequestDuration, ledgerWritesTotal)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveVerification(status string) {
	verificationsTotal.WithLabelValues(status).Inc()
}

func ObserveWindow(result string) {
	windowsTotal.WithLabelValues(result).Inc()
}

// ObservePayPalRequest records one API call; status 0 means no response.
func ObservePayPalRequest(endpoint string, status int, took time.Duration) {
	paypalRequestDuration.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(took.Seconds())
}

func ObserveLedgerWrite(backend string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerWritesTotal.WithLabelValues(backend, outcome).Inc()
}
