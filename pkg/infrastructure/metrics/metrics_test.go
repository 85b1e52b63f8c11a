package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vsinha/dough/pkg/domain/entities"
)

func TestRecorder_ObservePlanAndStock(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.ObservePlan(entities.Plan{
		TraysReady:        10,
		InboundReadyBy50h: 7,
		LunchShortfall:    2,
		DinnerShortfall:   16,
		TotalTraysToStart: 18,
	})
	r.ObserveStock([]entities.Batch{
		{ID: "R-1", Quantity: 120, Stage: entities.Ready},
		{ID: "F-1", Quantity: 140, Stage: entities.Frozen},
		{ID: "F-2", Quantity: 10, Stage: entities.Frozen},
	})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"trays_ready", testutil.ToFloat64(r.traysReady), 10},
		{"inbound", testutil.ToFloat64(r.inboundTrays), 7},
		{"lunch", testutil.ToFloat64(r.shortfallTrays.WithLabelValues("lunch")), 2},
		{"dinner", testutil.ToFloat64(r.shortfallTrays.WithLabelValues("dinner")), 16},
		{"to_start", testutil.ToFloat64(r.traysToStart), 18},
		{"frozen_units", testutil.ToFloat64(r.stageUnits.WithLabelValues("Frozen")), 150},
		{"ready_units", testutil.ToFloat64(r.stageUnits.WithLabelValues("Ready")), 120},
		{"expired_units", testutil.ToFloat64(r.stageUnits.WithLabelValues("Expired")), 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestRecorder_Counters(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.ObserveOperation("release", nil)
	r.ObserveOperation("release", nil)
	r.ObserveOperation("consume", errors.New("boom"))
	r.ObserveRelease(12, 2, true)
	r.ObserveRelease(36, 0, false)
	r.ObserveConsume(48, 72)
	r.ObserveTransition(entities.Proving, entities.Ready)

	if got := testutil.ToFloat64(r.operations.WithLabelValues("release", OutcomeOK)); got != 2 {
		t.Errorf("Expected 2 ok releases, got %v", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("consume", OutcomeError)); got != 1 {
		t.Errorf("Expected 1 failed consume, got %v", got)
	}
	if got := testutil.ToFloat64(r.unitsReleased); got != 48 {
		t.Errorf("Expected 48 released units, got %v", got)
	}
	if got := testutil.ToFloat64(r.unitsGranted); got != 2 {
		t.Errorf("Expected 2 granted units, got %v", got)
	}
	if got := testutil.ToFloat64(r.restockOrders); got != 1 {
		t.Errorf("Expected 1 restock order, got %v", got)
	}
	if got := testutil.ToFloat64(r.unitsUnfulfilled); got != 72 {
		t.Errorf("Expected 72 unfulfilled units, got %v", got)
	}
	if got := testutil.ToFloat64(r.transitions.WithLabelValues("Proving", "Ready")); got != 1 {
		t.Errorf("Expected 1 Proving->Ready transition, got %v", got)
	}
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic registering twice on one registry")
		}
	}()
	New(reg)
}
