package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/dough/pkg/application/services/allocation"
	"github.com/vsinha/dough/pkg/application/services/lifecycle"
	"github.com/vsinha/dough/pkg/application/services/planning"
	"github.com/vsinha/dough/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
}

// Report is everything one plan run produced
type Report struct {
	AsOf        time.Time                 `json:"as_of"`
	Forecast    entities.Forecast         `json:"forecast"`
	Plan        entities.Plan             `json:"plan"`
	Summary     planning.InventorySummary `json:"summary"`
	Release     *allocation.ReleaseResult `json:"release,omitempty"`
	Consume     *allocation.ConsumeResult `json:"consume,omitempty"`
	Transitions []lifecycle.Transition    `json:"transitions,omitempty"`
}

// Generate writes report to w in the configured format
func Generate(w io.Writer, report Report, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(w, report, config)
	case "json":
		return generateJSONOutput(w, report, config)
	case "csv":
		return generateCSVOutput(w, report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// FormatAge renders elapsed hours as whole minutes below an hour, else whole hours
func FormatAge(hours float64) string {
	if hours < 1 {
		return fmt.Sprintf("%dm", int(math.Floor(hours*60)))
	}
	return fmt.Sprintf("%dh", int(math.Floor(hours)))
}

// FormatRemaining renders a wait rounded up to minutes below an hour, else to hours
func FormatRemaining(d time.Duration) string {
	switch {
	case d <= 0:
		return "0h"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(math.Ceil(d.Minutes())))
	default:
		return fmt.Sprintf("%dh", int(math.Ceil(d.Hours())))
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(w io.Writer, report Report, config Config) error {
	plan := report.Plan
	summary := report.Summary

	fmt.Fprintf(w, "🍕 Dough Plan as of %s\n", report.AsOf.Format(time.RFC3339))
	fmt.Fprintf(w, "==============================\n\n")

	fmt.Fprintf(w, "Forecast: lunch %d, dinner %d, safety %.1f%%, buffer %d trays\n",
		report.Forecast.Lunch, report.Forecast.Dinner, report.Forecast.SafetyPct, report.Forecast.MinTrayBuffer)
	fmt.Fprintf(w, "Trays Ready: %d\n", plan.TraysReady)
	fmt.Fprintf(w, "Inbound (next 50h): %d\n", plan.InboundReadyBy50h)
	fmt.Fprintf(w, "Demand: lunch %d, dinner %d\n", plan.DemandLunch, plan.DemandDinner)
	fmt.Fprintf(w, "Shortfall: lunch %d, dinner %d\n", plan.LunchShortfall, plan.DinnerShortfall)
	fmt.Fprintf(w, "➡️  Trays to start now: %d\n\n", plan.TotalTraysToStart)

	if report.Release != nil && report.Release.UnitsRequested > 0 {
		fmt.Fprintf(w, "🧊 Released %d trays (%d units) into defrost\n",
			report.Release.TraysRequested, report.Release.UnitsRequested)
		if report.Release.GrantedShortfall > 0 {
			fmt.Fprintf(w, "⚠️  Frozen stock short by %d units", report.Release.GrantedShortfall)
			if report.Release.RestockBatch != nil {
				fmt.Fprintf(w, "; restock box %s of %d recorded",
					report.Release.RestockBatch.BatchID, report.Release.RestockBatch.Quantity)
			}
			fmt.Fprintln(w)
		}
	}
	if report.Consume != nil && report.Consume.UnitsRequested > 0 {
		fmt.Fprintf(w, "🍽️  Consumed %d units", report.Consume.Consumed)
		if report.Consume.Unfulfilled > 0 {
			fmt.Fprintf(w, " (%d units unfulfilled)", report.Consume.Unfulfilled)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n📦 Stock by Stage:\n")
	for _, stage := range entities.Stages {
		fmt.Fprintf(w, "  %-11s %6d", stage, summary.UnitsByStage[stage])
		if stage == entities.Frozen {
			fmt.Fprintf(w, "  (≈ %d boxes)", summary.FrozenBoxes)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n⏳ Ready Age:\n")
	for _, bucket := range entities.AgeBuckets {
		fmt.Fprintf(w, "  %-7s %6d\n", bucket, summary.ReadyAgeBuckets[bucket])
	}
	if summary.AgeingFast > 0 {
		fmt.Fprintf(w, "⚠️  %d proving batches ageing fast\n", summary.AgeingFast)
	}
	if summary.ExpiredBatches > 0 {
		fmt.Fprintf(w, "⚠️  %d expired batches to discard\n", summary.ExpiredBatches)
	}

	if len(summary.Defrosting) > 0 {
		fmt.Fprintf(w, "\n🌡️  Defrosting:\n")
		for _, d := range summary.Defrosting {
			status := "needs " + FormatRemaining(d.Remaining) + " more"
			if d.Done {
				status = "ready to prove"
			}
			fmt.Fprintf(w, "  %-12s %5d  for %-5s %s\n", d.BatchID, d.Quantity, FormatAge(d.ElapsedHours), status)
		}
	}

	if config.Verbose && len(summary.Batches) > 0 {
		fmt.Fprintf(w, "\n📋 Batches:\n")
		fmt.Fprintf(w, "%-30s %-8s %-11s %-6s %-8s\n", "ID", "Qty", "Stage", "Age", "Badge")
		fmt.Fprintf(w, "%-30s %-8s %-11s %-6s %-8s\n",
			"------------------------------", "--------", "-----------", "------", "--------")
		for _, b := range summary.Batches {
			age := "-"
			if !b.StageEnteredAt.IsZero() {
				age = FormatAge(b.ElapsedHours)
			}
			fmt.Fprintf(w, "%-30s %-8d %-11s %-6s %-8s\n", b.ID, b.Quantity, b.Stage, age, b.Badge)
		}
	}

	if config.Verbose && len(report.Transitions) > 0 {
		fmt.Fprintf(w, "\n🔄 Transitions:\n")
		for _, tr := range report.Transitions {
			fmt.Fprintf(w, "  %s: %s -> %s after %s\n", tr.BatchID, tr.From, tr.To, FormatAge(tr.ElapsedHours))
		}
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(w io.Writer, report Report, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "dough_plan.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes the plan and batch tables, to w or to files under OutputDir
func generateCSVOutput(w io.Writer, report Report, config Config) error {
	if config.OutputDir == "" {
		cw := csv.NewWriter(w)
		writePlanCSV(cw, report)
		_ = cw.Write([]string{})
		writeBatchesCSV(cw, report.Summary)
		cw.Flush()
		return cw.Error()
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	planFile := filepath.Join(config.OutputDir, "plan.csv")
	if err := writeCSVFile(planFile, func(cw *csv.Writer) { writePlanCSV(cw, report) }); err != nil {
		return fmt.Errorf("failed to write plan CSV: %w", err)
	}

	batchesFile := filepath.Join(config.OutputDir, "batches.csv")
	if err := writeCSVFile(batchesFile, func(cw *csv.Writer) { writeBatchesCSV(cw, report.Summary) }); err != nil {
		return fmt.Errorf("failed to write batches CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "💾 CSV results saved to:\n")
		fmt.Fprintf(w, "  Plan: %s\n", planFile)
		fmt.Fprintf(w, "  Batches: %s\n", batchesFile)
	}
	return nil
}

func writeCSVFile(filename string, write func(cw *csv.Writer)) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	write(cw)
	cw.Flush()
	return cw.Error()
}

func writePlanCSV(cw *csv.Writer, report Report) {
	plan := report.Plan
	_ = cw.Write([]string{
		"as_of", "demand_lunch", "demand_dinner", "trays_ready", "inbound_ready_by_50h",
		"lunch_shortfall", "dinner_shortfall", "total_trays_to_start",
	})
	_ = cw.Write([]string{
		report.AsOf.Format(time.RFC3339),
		strconv.Itoa(plan.DemandLunch),
		strconv.Itoa(plan.DemandDinner),
		strconv.Itoa(plan.TraysReady),
		strconv.Itoa(plan.InboundReadyBy50h),
		strconv.Itoa(plan.LunchShortfall),
		strconv.Itoa(plan.DinnerShortfall),
		strconv.Itoa(plan.TotalTraysToStart),
	})
}

func writeBatchesCSV(cw *csv.Writer, summary planning.InventorySummary) {
	_ = cw.Write([]string{"id", "quantity", "stage", "stage_entered_at", "age", "badge"})
	for _, b := range summary.Batches {
		enteredAt, age := "", ""
		if !b.StageEnteredAt.IsZero() {
			enteredAt = b.StageEnteredAt.Format(time.RFC3339)
			age = FormatAge(b.ElapsedHours)
		}
		_ = cw.Write([]string{
			string(b.ID),
			strconv.FormatInt(int64(b.Quantity), 10),
			b.Stage.String(),
			enteredAt,
			age,
			string(b.Badge),
		})
	}
}
