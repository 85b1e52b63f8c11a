package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/application/services/orchestration"
	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/events"
	"github.com/vsinha/dough/pkg/infrastructure/idgen"
	"github.com/vsinha/dough/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/dough/pkg/infrastructure/seed"
)

// Simulates three service days: each morning starts the suggested trays,
// lunch and dinner consume ready stock, and the clock runs overnight.
func main() {
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)

	store := events.NewInMemoryEventStore(zap.NewNop())
	orch, err := orchestration.NewInventoryOrchestrator(
		entities.DefaultPolicy(),
		memory.NewBatchRepository(32),
		idgen.NewSequence("B-", 2001),
		orchestration.Options{Events: store, EventClock: clk},
	)
	if err != nil {
		log.Fatal(err)
	}

	var seeds []entities.Batch
	for _, b := range seed.Default(start) {
		seeds = append(seeds, *b)
	}
	if err := orch.Initialize(ctx, seeds); err != nil {
		log.Fatal(err)
	}

	forecast := entities.DefaultForecast()
	fmt.Println("🍕 Simulating three service days...")

	for day := 1; day <= 3; day++ {
		now := clk.Now()
		plan, err := orch.ComputePlan(ctx, forecast, now)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("\n📅 Day %d (%s)\n", day, now.Format("Mon 15:04"))
		fmt.Printf("   Ready: %d trays, inbound by 50h: %d, start: %d\n",
			plan.TraysReady, plan.InboundReadyBy50h, plan.TotalTraysToStart)

		if plan.TotalTraysToStart > 0 {
			res, err := orch.ReleaseFromFrozen(ctx, plan.TotalTraysToStart, now)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("   🧊 Released %d units", res.UnitsRequested)
			if res.RestockBatch != nil {
				fmt.Printf(" (restock box %s)", res.RestockBatch.BatchID)
			}
			fmt.Println()
		}

		// defrost completes after two hours
		clk.Advance(2 * time.Hour)
		for _, b := range orch.GetSnapshot() {
			if b.Stage == entities.Defrosting {
				if err := orch.AdvanceDefrostToProve(ctx, b.ID, clk.Now()); err != nil {
					log.Fatal(err)
				}
			}
		}

		for _, service := range []struct {
			name  string
			units int
		}{{"lunch", forecast.Lunch}, {"dinner", forecast.Dinner}} {
			clk.Advance(4 * time.Hour)
			orch.Tick(ctx, clk.Now())
			trays := (service.units + 11) / 12
			res, err := orch.ConsumeReady(ctx, trays)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("   🍽️  %-6s used %d units, short %d\n", service.name, res.Consumed, res.Unfulfilled)
		}

		clk.Set(start.Add(time.Duration(day) * 24 * time.Hour))
	}

	summary := orch.Summary(ctx, clk.Now())
	fmt.Println("\n📦 Closing stock:")
	for _, stage := range entities.Stages {
		fmt.Printf("   %-11s %d\n", stage, summary.UnitsByStage[stage])
	}
	fmt.Printf("\n📜 %d events recorded\n", store.Len())
}
