package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/dough/pkg/domain/entities"
)

func TestSummarize(t *testing.T) {
	snapshot := []entities.Batch{
		{ID: "R-1", Quantity: 120, Stage: entities.Ready, StageEnteredAt: hoursAgo(60)},
		{ID: "R-2", Quantity: 30, Stage: entities.Ready, StageEnteredAt: hoursAgo(100)},
		{ID: "P-1", Quantity: 84, Stage: entities.Proving, StageEnteredAt: hoursAgo(20)},
		{ID: "P-2", Quantity: 10, Stage: entities.Proving, StageEnteredAt: hoursAgo(90)},
		{ID: "D-1", Quantity: 48, Stage: entities.Defrosting, StageEnteredAt: hoursAgo(1.25)},
		{ID: "D-2", Quantity: 24, Stage: entities.Defrosting, StageEnteredAt: hoursAgo(3)},
		{ID: "E-1", Quantity: 5, Stage: entities.Expired, StageEnteredAt: hoursAgo(130)},
		{ID: "F-1", Quantity: 140, Stage: entities.Frozen},
	}

	summary := NewPlanner(entities.DefaultPolicy()).Summarize(snapshot, now)

	assert.Equal(t, now, summary.AsOf)
	assert.Equal(t, map[entities.Stage]entities.Quantity{
		entities.Frozen:     140,
		entities.Defrosting: 72,
		entities.Proving:    94,
		entities.Ready:      150,
		entities.Expired:    5,
	}, summary.UnitsByStage)
	assert.Equal(t, 12, summary.TraysReady)
	assert.Equal(t, 2, summary.FrozenBoxes)
	assert.Equal(t, map[entities.AgeBucket]entities.Quantity{
		entities.Age0To24:  0,
		entities.Age24To48: 0,
		entities.Age48To72: 120,
		entities.Age72To96: 0,
		entities.Age96Plus: 30,
	}, summary.ReadyAgeBuckets)
	assert.Equal(t, 1, summary.ExpiredBatches)
	assert.Equal(t, 1, summary.AgeingFast)

	require.Len(t, summary.Defrosting, 2)
	assert.Equal(t, entities.BatchID("D-1"), summary.Defrosting[0].BatchID)
	assert.False(t, summary.Defrosting[0].Done)
	assert.Equal(t, 45*time.Minute, summary.Defrosting[0].Remaining)
	assert.True(t, summary.Defrosting[1].Done)
	assert.Zero(t, summary.Defrosting[1].Remaining)

	require.Len(t, summary.Batches, len(snapshot))
	assert.Equal(t, entities.BadgeReady, summary.Batches[0].Badge)
	assert.Equal(t, entities.BadgeOld, summary.Batches[1].Badge)
	assert.Equal(t, entities.BadgeProving, summary.Batches[2].Badge)
	assert.Empty(t, summary.Batches[7].Badge)
}

func TestSummarize_EmptySnapshot(t *testing.T) {
	summary := NewPlanner(entities.DefaultPolicy()).Summarize(nil, now)

	assert.Len(t, summary.UnitsByStage, len(entities.Stages))
	assert.Len(t, summary.ReadyAgeBuckets, len(entities.AgeBuckets))
	assert.Empty(t, summary.Defrosting)
	assert.Empty(t, summary.Batches)
	assert.Zero(t, summary.TraysReady)
	assert.Zero(t, summary.FrozenBoxes)
}
