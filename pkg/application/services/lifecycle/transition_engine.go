package lifecycle

import (
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/domain/repositories"
)

// Transition records a stage change applied by the engine
type Transition struct {
	BatchID      entities.BatchID `json:"batch_id"`
	From         entities.Stage   `json:"from"`
	To           entities.Stage   `json:"to"`
	ElapsedHours float64          `json:"elapsed_hours"`
}

// TransitionEngine advances batch stages from elapsed proving time.
// Frozen and Defrosting batches never move on their own.
type TransitionEngine struct {
	policy entities.Policy
}

// NewTransitionEngine creates an engine for the given policy
func NewTransitionEngine(policy entities.Policy) *TransitionEngine {
	return &TransitionEngine{policy: policy}
}

// Advance applies time-driven transitions to every batch in the store.
// Running it twice with the same now changes nothing the second time.
func (e *TransitionEngine) Advance(repo repositories.BatchRepository, now time.Time) []Transition {
	var transitions []Transition
	for _, batch := range repo.List() {
		next, changed := e.NextStage(*batch, now)
		if !changed {
			continue
		}
		transitions = append(transitions, Transition{
			BatchID:      batch.ID,
			From:         batch.Stage,
			To:           next,
			ElapsedHours: batch.ElapsedHours(now),
		})
		// Ready keeps the proving start so age keeps accruing from it.
		batch.Stage = next
	}
	return transitions
}

// NextStage reports the stage batch should be in at now
func (e *TransitionEngine) NextStage(batch entities.Batch, now time.Time) (entities.Stage, bool) {
	if batch.Stage != entities.Proving && batch.Stage != entities.Ready {
		return batch.Stage, false
	}

	h := batch.ElapsedHours(now)
	switch {
	case h >= e.policy.ExpireHours:
		return entities.Expired, true
	case h >= e.policy.MinProveHours && batch.Stage == entities.Proving:
		return entities.Ready, true
	default:
		return batch.Stage, false
	}
}

// IsDefrostComplete reports whether a defrosting batch has sat for DefrostHours
func (e *TransitionEngine) IsDefrostComplete(batch entities.Batch, now time.Time) bool {
	return batch.Stage == entities.Defrosting && batch.ElapsedHours(now) >= e.policy.DefrostHours
}

// DefrostRemaining returns how long a defrosting batch still needs, or zero when done
func (e *TransitionEngine) DefrostRemaining(batch entities.Batch, now time.Time) time.Duration {
	if batch.Stage != entities.Defrosting {
		return 0
	}
	remaining := e.policy.DefrostDuration() - time.Duration(batch.ElapsedHours(now)*float64(time.Hour))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Badge returns the informational freshness badge for proving and ready batches
func (e *TransitionEngine) Badge(batch entities.Batch, now time.Time) (entities.Badge, bool) {
	if batch.Stage != entities.Proving && batch.Stage != entities.Ready {
		return "", false
	}
	return entities.BadgeFor(batch.ElapsedHours(now), e.policy), true
}
