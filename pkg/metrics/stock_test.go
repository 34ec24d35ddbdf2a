package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStockMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStockMetrics(reg)

	origin := "sale"
	m.IncConsumed(origin)
	m.IncInsufficient(origin)
	m.IncReplenished("expense_document")
	m.ObserveConsumeDuration(origin, 25*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_consume_success", "origin", origin); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_consume_insufficient", "origin", origin); err != nil {
		t.Fatalf("fetch insufficient: %v", err)
	} else if got != 1 {
		t.Fatalf("expected insufficient=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_replenishments", "origin", "expense_document"); err != nil {
		t.Fatalf("fetch replenishments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected replenishments=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "stock_consume_duration_seconds", "origin", origin); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestStockMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewStockMetrics(nil)
	m.IncConsumed("sale")
	m.ObserveConsumeDuration("sale", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
