package planning

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/dough/pkg/application/services/lifecycle"
	"github.com/vsinha/dough/pkg/domain/entities"
)

var hundred = decimal.NewFromInt(100)

// Planner turns a batch snapshot and a forecast into tray requirements.
// It holds no state beyond the policy and never mutates the snapshot.
type Planner struct {
	policy    entities.Policy
	lifecycle *lifecycle.TransitionEngine
}

// NewPlanner creates a planner for the given policy
func NewPlanner(policy entities.Policy) *Planner {
	return &Planner{
		policy:    policy,
		lifecycle: lifecycle.NewTransitionEngine(policy),
	}
}

// ComputePlan computes lunch and dinner demand and the trays still to release from frozen
func (p *Planner) ComputePlan(snapshot []entities.Batch, forecast entities.Forecast, now time.Time) entities.Plan {
	traysReady := p.TraysReady(snapshot)
	inbound := p.InboundReadyBy50h(snapshot, now)

	plan := entities.Plan{
		DemandLunch:       p.Demand(forecast.Lunch, forecast),
		DemandDinner:      p.Demand(forecast.Dinner, forecast),
		TraysReady:        traysReady,
		InboundReadyBy50h: inbound,
	}

	plan.LunchShortfall = max(0, plan.DemandLunch-traysReady-inbound)
	leftoverAfterLunch := max(0, traysReady-plan.DemandLunch)
	plan.DinnerShortfall = max(0, plan.DemandDinner-leftoverAfterLunch-inbound)
	plan.TotalTraysToStart = plan.LunchShortfall + plan.DinnerShortfall
	return plan
}

// TraysReady counts whole trays in the Ready pool
func (p *Planner) TraysReady(snapshot []entities.Batch) int {
	return p.policy.Trays(entities.TotalQuantity(snapshot, entities.Ready))
}

// InboundReadyBy50h counts whole trays of Proving stock that will be ready within the lead time.
//
// A batch qualifies when its elapsed proving hours plus the defrost and prove lead time reach
// MinProveHours. Since the lead time alone covers MinProveHours, every Proving batch qualifies.
func (p *Planner) InboundReadyBy50h(snapshot []entities.Batch, now time.Time) int {
	horizon := p.policy.LeadTimeHours()

	var inbound entities.Quantity
	for _, batch := range snapshot {
		if batch.Stage != entities.Proving {
			continue
		}
		if batch.ElapsedHours(now)+horizon >= p.policy.MinProveHours {
			inbound += batch.Quantity
		}
	}
	return p.policy.Trays(inbound)
}

// Demand converts a unit forecast into trays, adding the safety margin and tray buffer.
// SafetyPct must be finite.
func (p *Planner) Demand(units int, forecast entities.Forecast) int {
	capacity := decimal.NewFromInt(int64(p.policy.TrayCapacity))
	margin := decimal.NewFromInt(1).Add(decimal.NewFromFloat(forecast.SafetyPct).Div(hundred))
	buffer := decimal.NewFromInt(int64(forecast.MinTrayBuffer)).Mul(capacity)

	trays := decimal.NewFromInt(int64(units)).Mul(margin).Add(buffer).Div(capacity).Ceil()
	return int(trays.IntPart())
}
