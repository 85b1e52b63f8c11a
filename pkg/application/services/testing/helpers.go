package testing

import (
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/infrastructure/repositories/memory"
)

// mustCreateBatch is a helper for tests - panics on validation error
func mustCreateBatch(id string, quantity entities.Quantity, stage entities.Stage, enteredAt time.Time) *entities.Batch {
	batch, err := entities.NewBatch(entities.BatchID(id), quantity, stage, enteredAt)
	if err != nil {
		panic(err)
	}
	return batch
}

// ServiceDayBatches returns a mixed inventory as it might look before a lunch service at now.
//
//	Ready       R-1 36 @50h, R-2 24 @80h, R-3 12 @100h
//	Proving     P-1 60 @47h, P-2 48 @10h
//	Defrosting  D-1 30 @3h (done), D-2 20 @30m
//	Frozen      F-1 70, F-2 40
//	Expired     X-1 12 @130h
func ServiceDayBatches(now time.Time) []*entities.Batch {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	return []*entities.Batch{
		mustCreateBatch("R-1", 36, entities.Ready, ago(50*time.Hour)),
		mustCreateBatch("R-2", 24, entities.Ready, ago(80*time.Hour)),
		mustCreateBatch("R-3", 12, entities.Ready, ago(100*time.Hour)),
		mustCreateBatch("P-1", 60, entities.Proving, ago(47*time.Hour)),
		mustCreateBatch("P-2", 48, entities.Proving, ago(10*time.Hour)),
		mustCreateBatch("D-1", 30, entities.Defrosting, ago(3*time.Hour)),
		mustCreateBatch("D-2", 20, entities.Defrosting, ago(30*time.Minute)),
		mustCreateBatch("F-1", 70, entities.Frozen, time.Time{}),
		mustCreateBatch("F-2", 40, entities.Frozen, time.Time{}),
		mustCreateBatch("X-1", 12, entities.Expired, ago(130*time.Hour)),
	}
}

// ServiceDaySeeds returns ServiceDayBatches by value, in the form Initialize accepts
func ServiceDaySeeds(now time.Time) []entities.Batch {
	batches := ServiceDayBatches(now)
	seeds := make([]entities.Batch, len(batches))
	for i, b := range batches {
		seeds[i] = *b
	}
	return seeds
}

// BuildServiceDayInventory loads ServiceDayBatches into a fresh repository
func BuildServiceDayInventory(now time.Time) *memory.BatchRepository {
	repo := memory.NewBatchRepository(16)
	if err := repo.LoadBatches(ServiceDayBatches(now)); err != nil {
		panic(err)
	}
	return repo
}

// BuildSimpleTestData holds a single box of frozen stock
func BuildSimpleTestData() *memory.BatchRepository {
	repo := memory.NewBatchRepository(4)
	if err := repo.LoadBatches([]*entities.Batch{
		mustCreateBatch("F-1", 70, entities.Frozen, time.Time{}),
	}); err != nil {
		panic(err)
	}
	return repo
}
