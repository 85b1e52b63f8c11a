package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/interfaces/cli/commands"
)

func main() {
	args := os.Args[1:]
	sub := "plan"
	if len(args) > 0 && (args[0] == "plan" || args[0] == "serve") {
		sub, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch sub {
	case "serve":
		err = runServe(ctx, args)
	default:
		err = runPlan(ctx, args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPlan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	defaults := entities.DefaultForecast()

	// Command line flags
	var (
		configFile = fs.String("config", "", "Path to config file")
		seedFile   = fs.String("seed", "", "Path to seed batches CSV file")
		at         = fs.String("at", "", "Plan as of an RFC3339 time")
		lunch      = fs.Int("lunch", defaults.Lunch, "Lunch forecast in dough balls")
		dinner     = fs.Int("dinner", defaults.Dinner, "Dinner forecast in dough balls")
		safety     = fs.Float64("safety", defaults.SafetyPct, "Safety margin percent")
		buffer     = fs.Int("buffer", defaults.MinTrayBuffer, "Minimum tray buffer per period")
		advance    = fs.String("advance", "", "Comma-separated defrosting batches to move into proving")
		release    = fs.Int("release", 0, "Trays to release from frozen")
		consume    = fs.Int("consume", 0, "Ready trays to consume")
		outputDir  = fs.String("output", "", "Output directory for results (optional)")
		format     = fs.String("format", "text", "Output format: text, json, csv")
		verbose    = fs.Bool("verbose", false, "Enable verbose output")
		help       = fs.Bool("help", false, "Show help message")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := commands.NewPlanCommand(commands.PlanConfig{
		ConfigFile: *configFile,
		SeedFile:   *seedFile,
		At:         *at,
		Forecast: entities.Forecast{
			Lunch:         *lunch,
			Dinner:        *dinner,
			SafetyPct:     *safety,
			MinTrayBuffer: *buffer,
		},
		Release:   *release,
		Consume:   *consume,
		Advance:   *advance,
		OutputDir: *outputDir,
		Format:    *format,
		Verbose:   *verbose,
		Help:      *help,
	})
	return cmd.Execute(ctx)
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		configFile = fs.String("config", "", "Path to config file")
		seedFile   = fs.String("seed", "", "Path to seed batches CSV file")
		addr       = fs.String("addr", "", "HTTP listen address (overrides config)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := commands.NewServeCommand(commands.ServeConfig{
		ConfigFile: *configFile,
		SeedFile:   *seedFile,
		Addr:       *addr,
	})
	return cmd.Execute(ctx)
}
