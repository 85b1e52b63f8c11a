package events

import (
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
)

const (
	BatchSeededEvent   = "batch.seeded"
	BatchReleasedEvent = "batch.released"
	BatchConsumedEvent = "batch.consumed"
	BatchAdvancedEvent = "batch.advanced"

	StageTransitionedEvent = "stage.transitioned"
	RestockRequestedEvent  = "restock.requested"

	PlanComputedEvent = "plan.computed"
)

// PlanStream is the stream that collects plan.computed events
const PlanStream = "plan"

type BatchSeeded struct {
	Batch entities.Batch `json:"batch"`
}

// BatchReleased records a Defrosting batch split off frozen stock.
// SourceID is empty when the units were granted against a freezer shortfall.
type BatchReleased struct {
	Batch    entities.Batch   `json:"batch"`
	SourceID entities.BatchID `json:"source_id,omitempty"`
}

type BatchConsumed struct {
	BatchID  entities.BatchID  `json:"batch_id"`
	Quantity entities.Quantity `json:"quantity"`
}

type BatchAdvanced struct {
	BatchID entities.BatchID `json:"batch_id"`
	From    entities.Stage   `json:"from"`
	To      entities.Stage   `json:"to"`
}

type StageTransitioned struct {
	BatchID      entities.BatchID `json:"batch_id"`
	From         entities.Stage   `json:"from"`
	To           entities.Stage   `json:"to"`
	ElapsedHours float64          `json:"elapsed_hours"`
}

type RestockRequested struct {
	Batch     entities.Batch    `json:"batch"`
	Shortfall entities.Quantity `json:"shortfall"`
}

type PlanComputed struct {
	Forecast entities.Forecast `json:"forecast"`
	Plan     entities.Plan     `json:"plan"`
}

func NewBatchSeededEvent(batch entities.Batch, at time.Time) Event {
	return NewEvent(BatchSeededEvent, string(batch.ID), BatchSeeded{Batch: batch}, at)
}

func NewBatchReleasedEvent(batch entities.Batch, source entities.BatchID, at time.Time) Event {
	return NewEvent(BatchReleasedEvent, string(batch.ID), BatchReleased{Batch: batch, SourceID: source}, at)
}

func NewBatchConsumedEvent(id entities.BatchID, qty entities.Quantity, at time.Time) Event {
	return NewEvent(BatchConsumedEvent, string(id), BatchConsumed{BatchID: id, Quantity: qty}, at)
}

func NewBatchAdvancedEvent(id entities.BatchID, from, to entities.Stage, at time.Time) Event {
	return NewEvent(BatchAdvancedEvent, string(id), BatchAdvanced{BatchID: id, From: from, To: to}, at)
}

func NewStageTransitionedEvent(id entities.BatchID, from, to entities.Stage, elapsedHours float64, at time.Time) Event {
	return NewEvent(StageTransitionedEvent, string(id), StageTransitioned{
		BatchID:      id,
		From:         from,
		To:           to,
		ElapsedHours: elapsedHours,
	}, at)
}

func NewRestockRequestedEvent(batch entities.Batch, shortfall entities.Quantity, at time.Time) Event {
	return NewEvent(RestockRequestedEvent, string(batch.ID), RestockRequested{Batch: batch, Shortfall: shortfall}, at)
}

func NewPlanComputedEvent(forecast entities.Forecast, plan entities.Plan, at time.Time) Event {
	return NewEvent(PlanComputedEvent, PlanStream, PlanComputed{Forecast: forecast, Plan: plan}, at)
}
