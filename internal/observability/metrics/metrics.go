package metrics

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "mahabote_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	slipVerifications *prometheus.CounterVec

	paymentsStarted prometheus.Counter
	paymentCycles   prometheus.Counter

	generationTotal   *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec

	sessionsAwaiting prometheus.Gauge
)

// Init registers metrics and, when a database is supplied, a polled gauge
// of sessions currently awaiting payment.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		slipVerifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "slip_verifications_total",
				Help: "Slip verification attempts by result and failure kind",
			},
			[]string{"result", "kind"},
		)
		paymentsStarted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "payments_started_total",
				Help: "Payment cycles started",
			},
		)
		paymentCycles = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_cycles_completed_total",
				Help: "Payment cycles that ended with an answered question",
			},
		)
		generationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generation_requests_total",
				Help: "AI generation requests by mode and result",
			},
			[]string{"mode", "result"},
		)
		generationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "generation_latency_seconds",
				Help:    "AI generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		)
		sessionsAwaiting = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "sessions_awaiting_payment",
				Help: "Gate sessions currently awaiting payment",
			},
		)

		prometheus.MustRegister(
			slipVerifications,
			paymentsStarted,
			paymentCycles,
			generationTotal,
			generationLatency,
			sessionsAwaiting,
		)

		if db != nil {
			go pollAwaitingSessions(db, logger)
		}
	})
}

// SlipVerified records one verification attempt.
func SlipVerified(success bool, kind string) {
	if slipVerifications == nil {
		return
	}
	result := resultError
	if success {
		result = resultSuccess
		kind = ""
	}
	slipVerifications.WithLabelValues(result, kind).Inc()
}

// PaymentStarted records a newly issued amount and QR payload.
func PaymentStarted() {
	if paymentsStarted != nil {
		paymentsStarted.Inc()
	}
}

// PaymentCycleCompleted records a paid question having been answered.
func PaymentCycleCompleted() {
	if paymentCycles != nil {
		paymentCycles.Inc()
	}
}

// GenerationObserved records one AI generation call.
func GenerationObserved(mode string, err error, elapsed time.Duration) {
	if generationTotal == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	generationTotal.WithLabelValues(mode, result).Inc()
	generationLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func pollAwaitingSessions(db *sql.DB, logger *log.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var count int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gate_sessions WHERE state = 'awaiting_payment'`).Scan(&count)
		cancel()
		if err != nil {
			if logger != nil {
				logger.Printf("metrics: awaiting sessions poll: %v", err)
			}
			continue
		}
		sessionsAwaiting.Set(float64(count))
	}
}
