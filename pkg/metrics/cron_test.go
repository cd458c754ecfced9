package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("stale-orders", 250*time.Millisecond)
	m.IncSuccess("stale-orders")
	m.IncFailure("stale-orders")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	success := findMetric(t, mfs, "greentrade_cron_job_success_total", "stale-orders")
	assert.Equal(t, float64(1), success.GetCounter().GetValue())

	failure := findMetric(t, mfs, "greentrade_cron_job_failure_total", "stale-orders")
	assert.Equal(t, float64(1), failure.GetCounter().GetValue())

	duration := findMetric(t, mfs, "greentrade_cron_job_duration_seconds", "stale-orders")
	assert.Greater(t, duration.GetHistogram().GetSampleSum(), float64(0))
}

func TestCronJobMetricsNormalizesEmptyJobName(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	metric := findMetric(t, mfs, "greentrade_cron_job_success_total", "unknown")
	assert.Equal(t, float64(1), metric.GetCounter().GetValue())
}

func TestCronJobMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewCronJobMetrics(nil)

	// None of these may panic without backing collectors.
	m.ObserveDuration("stale-orders", time.Second)
	m.IncSuccess("stale-orders")
	m.IncFailure("stale-orders")
}

func findMetric(t *testing.T, mfs []*dto.MetricFamily, name, job string) *dto.Metric {
	t.Helper()

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric
				}
			}
		}
	}
	t.Fatalf("metric %q with job=%q not found", name, job)
	return nil
}
