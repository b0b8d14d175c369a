package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Replace global default registry to allow test inspection.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.TransactionsCreated == nil || m.HTTPRequests == nil || m.RateLookups == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.RateCacheHits.Inc()
	m.VaultTransfersAuto.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	found := map[string]bool{}
	for _, mf := range metricFamilies {
		found[mf.GetName()] = true
	}

	for _, name := range []string{
		"treasury_rate_cache_hits_total",
		"treasury_vault_transfers_auto_approved_total",
	} {
		if !found[name] {
			t.Fatalf("expected %s to be registered", name)
		}
	}
}
