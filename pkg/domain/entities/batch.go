package entities

import (
	"fmt"
	"strings"
	"time"
)

// BatchID represents a unique batch identifier
type BatchID string

// Quantity represents an integer count of dough balls
type Quantity int64

// Stage represents the position of a batch in the proving pipeline
type Stage int

const (
	Frozen Stage = iota
	Defrosting
	Proving
	Ready
	Expired
)

// Stages lists every stage in pipeline order
var Stages = []Stage{Frozen, Defrosting, Proving, Ready, Expired}

// String method for Stage enum
func (s Stage) String() string {
	switch s {
	case Frozen:
		return "Frozen"
	case Defrosting:
		return "Defrosting"
	case Proving:
		return "Proving"
	case Ready:
		return "Ready"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the pipeline stages
func (s Stage) Valid() bool {
	return s >= Frozen && s <= Expired
}

// Timed reports whether entering s records a stage-entry timestamp
func (s Stage) Timed() bool {
	return s == Defrosting || s == Proving
}

// ParseStage converts a case-insensitive stage name into a Stage
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frozen":
		return Frozen, nil
	case "defrosting":
		return Defrosting, nil
	case "proving":
		return Proving, nil
	case "ready":
		return Ready, nil
	case "expired":
		return Expired, nil
	default:
		return Frozen, fmt.Errorf("%w: %q (expected Frozen, Defrosting, Proving, Ready or Expired)", ErrInvalidStage, s)
	}
}

// MarshalText encodes the stage by name
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Batch is a quantity of dough balls sharing one stage and one stage-entry timestamp.
// A zero StageEnteredAt means no timestamp was recorded.
type Batch struct {
	ID             BatchID   `json:"id"`
	Quantity       Quantity  `json:"quantity"`
	Stage          Stage     `json:"stage"`
	StageEnteredAt time.Time `json:"stage_entered_at,omitzero"`
}

// NewBatch creates a validated Batch
func NewBatch(id BatchID, quantity Quantity, stage Stage, stageEnteredAt time.Time) (*Batch, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: batch %s has quantity %d", ErrInvalidQuantity, id, quantity)
	}
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, int(stage))
	}

	return &Batch{
		ID:             id,
		Quantity:       quantity,
		Stage:          stage,
		StageEnteredAt: stageEnteredAt,
	}, nil
}

// ElapsedHours returns the hours since the batch entered its current timed stage.
// Batches without a recorded timestamp report zero.
func (b Batch) ElapsedHours(now time.Time) float64 {
	if b.StageEnteredAt.IsZero() {
		return 0
	}
	return now.Sub(b.StageEnteredAt).Hours()
}

// Empty reports whether the batch has been fully drained
func (b Batch) Empty() bool {
	return b.Quantity == 0
}

// Take removes qty units from the batch. Driving a batch negative is a programming error.
func (b *Batch) Take(qty Quantity) {
	if qty < 0 || qty > b.Quantity {
		panic(fmt.Errorf("%w: batch %s holds %d, take %d", ErrNegativeQuantity, b.ID, b.Quantity, qty))
	}
	b.Quantity -= qty
}

// EnterStage moves the batch to stage, recording now for timed stages
func (b *Batch) EnterStage(stage Stage, now time.Time) {
	b.Stage = stage
	if stage.Timed() {
		b.StageEnteredAt = now
	}
}

// TotalQuantity sums the quantity of batches in the given stage
func TotalQuantity(batches []Batch, stage Stage) Quantity {
	var total Quantity
	for _, b := range batches {
		if b.Stage == stage {
			total += b.Quantity
		}
	}
	return total
}
