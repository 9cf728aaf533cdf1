package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotentAndCountersWork(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	IncSpawn()
	IncSpawnFailure("not_found")
	IncReap("success")
	IncReap("interrupted")
	IncDelegatedInterrupt()
	ObserveWaitDuration(0.25)
	IncRunning()
	DecRunning()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	wantNames := map[string]bool{
		"process_lifecycle_spawns_total":               false,
		"process_lifecycle_spawn_failures_total":       false,
		"process_lifecycle_reaps_total":                false,
		"process_lifecycle_delegated_interrupts_total": false,
		"process_lifecycle_wait_duration_seconds":      false,
		"process_lifecycle_running_children":           false,
	}
	for _, mf := range mfs {
		n := mf.GetName()
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", n)
			}
		}
	}
	for n, ok := range wantNames {
		if !ok {
			t.Fatalf("expected to find metric %s", n)
		}
	}
}

func TestHelpersNoOpBeforeRegister(t *testing.T) {
	regOK.Store(false)
	defer regOK.Store(true)
	// Must not panic or record anything while unregistered.
	IncSpawn()
	IncReap("failure")
	DecRunning()
}

func TestHandlerServesMetrics(t *testing.T) {
	// Allow registration with the default registry regardless of prior tests.
	regOK.Store(false)
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	IncSpawn()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(b), "process_lifecycle_spawns_total") {
		t.Fatalf("exposition missing spawn counter:\n%s", b)
	}
}
