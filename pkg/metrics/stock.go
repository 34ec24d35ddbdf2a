package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records outcomes of stock-mutating operations.
type StockMetrics struct {
	consumeDuration *prometheus.HistogramVec
	consumed        *prometheus.CounterVec
	insufficient    *prometheus.CounterVec
	replenished     *prometheus.CounterVec
}

// NewStockMetrics registers the stock metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	consumeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_consume_duration_seconds",
		Help:    "Duration of multi-ingredient consumption transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"origin"})
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_consume_success",
		Help: "Successful consumption transactions.",
	}, []string{"origin"})
	insufficient := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_consume_insufficient",
		Help: "Consumption attempts rejected for insufficient stock.",
	}, []string{"origin"})
	replenished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_replenishments",
		Help: "Stock increments applied from expense documents.",
	}, []string{"origin"})
	reg.MustRegister(consumeDuration, consumed, insufficient, replenished)
	return &StockMetrics{
		consumeDuration: consumeDuration,
		consumed:        consumed,
		insufficient:    insufficient,
		replenished:     replenished,
	}
}

// ObserveConsumeDuration records the duration of one consumption transaction.
func (m *StockMetrics) ObserveConsumeDuration(origin string, duration time.Duration) {
	if m == nil || m.consumeDuration == nil {
		return
	}
	m.consumeDuration.WithLabelValues(normalizeLabel(origin)).Observe(duration.Seconds())
}

// IncConsumed increments the success counter for the given origin.
func (m *StockMetrics) IncConsumed(origin string) {
	if m == nil || m.consumed == nil {
		return
	}
	m.consumed.WithLabelValues(normalizeLabel(origin)).Inc()
}

// IncInsufficient increments the insufficient-stock counter for the origin.
func (m *StockMetrics) IncInsufficient(origin string) {
	if m == nil || m.insufficient == nil {
		return
	}
	m.insufficient.WithLabelValues(normalizeLabel(origin)).Inc()
}

// IncReplenished increments the replenishment counter for the origin.
func (m *StockMetrics) IncReplenished(origin string) {
	if m == nil || m.replenished == nil {
		return
	}
	m.replenished.WithLabelValues(normalizeLabel(origin)).Inc()
}

func normalizeLabel(origin string) string {
	if origin == "" {
		return "unknown"
	}
	return origin
}
