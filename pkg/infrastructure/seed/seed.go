// Package seed provides the sample inventory used when no seed file is configured.
package seed

import (
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
)

// Default returns one batch per early stage, timed relative to now
func Default(now time.Time) []*entities.Batch {
	return []*entities.Batch{
		{ID: "B-1001", Quantity: 120, Stage: entities.Ready, StageEnteredAt: now.Add(-60 * time.Hour)},
		{ID: "B-1002", Quantity: 84, Stage: entities.Proving, StageEnteredAt: now.Add(-20 * time.Hour)},
		{ID: "B-1003", Quantity: 48, Stage: entities.Defrosting, StageEnteredAt: now.Add(-72 * time.Minute)},
		{ID: "B-1004", Quantity: 140, Stage: entities.Frozen},
	}
}
