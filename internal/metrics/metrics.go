// Package metrics exposes Prometheus collectors for the jobscout service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal        *prometheus.CounterVec
	rateLimitsTotal   prometheus.Counter
	pacingDelay       prometheus.Gauge
	cardsParsedTotal  prometheus.Counter
	cardsSkippedTotal *prometheus.CounterVec
	alertRunsTotal    *prometheus.CounterVec
	fetchDuration     prometheus.Histogram

	once sync.Once
)

// Init registers the collectors on the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobscout_pages_total",
				Help: "Result pages fetched, labeled by outcome (success, rate_limited, failed).",
			},
			[]string{"outcome"},
		)
		rateLimitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jobscout_rate_limit_hits_total",
				Help: "Explicit rate-limit responses received from upstream.",
			},
		)
		pacingDelay = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobscout_pacing_delay_seconds",
				Help: "Inter-request delay currently enforced by the pacing governor.",
			},
		)
		cardsParsedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jobscout_cards_parsed_total",
				Help: "Job cards successfully extracted into postings.",
			},
		)
		cardsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobscout_cards_skipped_total",
				Help: "Job cards discarded during extraction, labeled by reason.",
			},
			[]string{"reason"},
		)
		alertRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobscout_alert_runs_total",
				Help: "Saved-search runs, labeled by result (ok, error, disabled).",
			},
			[]string{"result"},
		)
		fetchDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobscout_fetch_duration_seconds",
				Help:    "Latency of individual upstream page requests.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)
	})
}

// ObservePage records one page fetch outcome.
func ObservePage(outcome string, duration time.Duration) {
	if pagesTotal == nil {
		return
	}
	pagesTotal.WithLabelValues(outcome).Inc()
	fetchDuration.Observe(duration.Seconds())
}

// ObserveRateLimit counts an explicit upstream rate-limit signal.
func ObserveRateLimit() {
	if rateLimitsTotal == nil {
		return
	}
	rateLimitsTotal.Inc()
}

// SetPacingDelay publishes the governor's current delay.
func SetPacingDelay(d time.Duration) {
	if pacingDelay == nil {
		return
	}
	pacingDelay.Set(d.Seconds())
}

// ObserveCardParsed counts one extracted posting.
func ObserveCardParsed() {
	if cardsParsedTotal == nil {
		return
	}
	cardsParsedTotal.Inc()
}

// ObserveCardSkipped counts one discarded card.
func ObserveCardSkipped(reason string) {
	if cardsSkippedTotal == nil {
		return
	}
	cardsSkippedTotal.WithLabelValues(reason).Inc()
}

// ObserveAlertRun counts one saved-search execution.
func ObserveAlertRun(result string) {
	if alertRunsTotal == nil {
		return
	}
	alertRunsTotal.WithLabelValues(result).Inc()
}
