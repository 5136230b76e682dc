package authcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricOTPSent)
	m.Inc(MetricOTPSent)
	m.Inc(MetricOTPSent)

	if got := m.Value(MetricOTPSent); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRateLimitHit)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRateLimitHit); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		20 * time.Millisecond,
		50 * time.Millisecond,
		90 * time.Millisecond,
		250 * time.Millisecond,
		400 * time.Millisecond,
		1000 * time.Millisecond,
		3 * time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricLoginLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricLoginLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounterIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("counter ids must not carry histograms")
	}
	if _, ok := snap.Counters[MetricLoginLatency]; ok {
		t.Fatal("latency ids must not appear as counters")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)
	m.Inc(MetricLoginFailure)
	m.Observe(MetricValidateLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected MetricLoginFailure=2 got %d", snap.Counters[MetricLoginFailure])
	}
	if snap.Histograms[MetricValidateLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricValidateLatency][0])
	}
}

func TestValidateRecordsLatencyWithoutStoreWrites(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Metrics.EnableLatencyHistograms = true
	})
	env.addUser(t, "u-1", "amina")
	res := env.login(t, "amina")
	verified, err := env.engine.VerifyOTP(t.Context(), res.SessionID, res.Code)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	before := len(env.mr.Keys())
	if _, err := env.engine.ValidateSession(t.Context(), verified.Token); err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if after := len(env.mr.Keys()); after != before {
		t.Fatalf("validate wrote to the store: %d -> %d keys", before, after)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricValidateSuccess] != 1 {
		t.Fatalf("expected one validate success, got %d", snap.Counters[MetricValidateSuccess])
	}
	var total uint64
	for _, v := range snap.Histograms[MetricValidateLatency] {
		total += v
	}
	if total != 1 {
		t.Fatalf("expected one latency observation, got %d", total)
	}
}
