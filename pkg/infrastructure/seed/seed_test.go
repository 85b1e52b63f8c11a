package seed

import (
	"math"
	"testing"
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
)

func TestDefault(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	batches := Default(now)

	expected := map[entities.BatchID]struct {
		stage entities.Stage
		qty   entities.Quantity
		hours float64
	}{
		"B-1001": {entities.Ready, 120, 60},
		"B-1002": {entities.Proving, 84, 20},
		"B-1003": {entities.Defrosting, 48, 1.2},
		"B-1004": {entities.Frozen, 140, 0},
	}
	if len(batches) != len(expected) {
		t.Fatalf("Expected %d batches, got %d", len(expected), len(batches))
	}
	for _, b := range batches {
		want, ok := expected[b.ID]
		if !ok {
			t.Errorf("Unexpected batch %s", b.ID)
			continue
		}
		if b.Stage != want.stage || b.Quantity != want.qty || math.Abs(b.ElapsedHours(now)-want.hours) > 1e-9 {
			t.Errorf("Batch %s: expected %v/%d/%vh, got %v/%d/%vh",
				b.ID, want.stage, want.qty, want.hours, b.Stage, b.Quantity, b.ElapsedHours(now))
		}
	}
}
