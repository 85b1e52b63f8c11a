package planning

import (
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
)

// BatchView is a batch annotated for display
type BatchView struct {
	entities.Batch
	ElapsedHours float64        `json:"elapsed_hours"`
	Badge        entities.Badge `json:"badge,omitempty"`
}

// DefrostEntry reports the progress of one defrosting batch
type DefrostEntry struct {
	BatchID      entities.BatchID  `json:"batch_id"`
	Quantity     entities.Quantity `json:"quantity"`
	ElapsedHours float64           `json:"elapsed_hours"`
	Done         bool              `json:"done"`
	Remaining    time.Duration     `json:"remaining"`
}

// InventorySummary aggregates a snapshot for dashboards and reports
type InventorySummary struct {
	AsOf            time.Time                                `json:"as_of"`
	UnitsByStage    map[entities.Stage]entities.Quantity     `json:"units_by_stage"`
	TraysReady      int                                      `json:"trays_ready"`
	FrozenBoxes     int                                      `json:"frozen_boxes"`
	ReadyAgeBuckets map[entities.AgeBucket]entities.Quantity `json:"ready_age_buckets"`
	ExpiredBatches  int                                      `json:"expired_batches"`
	// AgeingFast counts Proving batches past WarnHours
	AgeingFast int            `json:"ageing_fast"`
	Defrosting []DefrostEntry `json:"defrosting"`
	Batches    []BatchView    `json:"batches"`
}

// Summarize builds an InventorySummary of snapshot as seen at now
func (p *Planner) Summarize(snapshot []entities.Batch, now time.Time) InventorySummary {
	summary := InventorySummary{
		AsOf:            now,
		UnitsByStage:    make(map[entities.Stage]entities.Quantity, len(entities.Stages)),
		ReadyAgeBuckets: make(map[entities.AgeBucket]entities.Quantity, len(entities.AgeBuckets)),
		TraysReady:      p.TraysReady(snapshot),
		Defrosting:      []DefrostEntry{},
		Batches:         make([]BatchView, 0, len(snapshot)),
	}
	for _, stage := range entities.Stages {
		summary.UnitsByStage[stage] = 0
	}
	for _, bucket := range entities.AgeBuckets {
		summary.ReadyAgeBuckets[bucket] = 0
	}

	for _, batch := range snapshot {
		h := batch.ElapsedHours(now)
		summary.UnitsByStage[batch.Stage] += batch.Quantity

		view := BatchView{Batch: batch, ElapsedHours: h}
		if badge, ok := p.lifecycle.Badge(batch, now); ok {
			view.Badge = badge
		}
		summary.Batches = append(summary.Batches, view)

		switch batch.Stage {
		case entities.Ready:
			summary.ReadyAgeBuckets[entities.BucketFor(h)] += batch.Quantity
		case entities.Proving:
			if h > p.policy.WarnHours {
				summary.AgeingFast++
			}
		case entities.Expired:
			summary.ExpiredBatches++
		case entities.Defrosting:
			summary.Defrosting = append(summary.Defrosting, DefrostEntry{
				BatchID:      batch.ID,
				Quantity:     batch.Quantity,
				ElapsedHours: h,
				Done:         p.lifecycle.IsDefrostComplete(batch, now),
				Remaining:    p.lifecycle.DefrostRemaining(batch, now),
			})
		}
	}
	summary.FrozenBoxes = p.policy.Boxes(summary.UnitsByStage[entities.Frozen])
	return summary
}
