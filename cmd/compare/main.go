// Command compare benchmarks several SSR frameworks back to back and
// writes a ranked comparison report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/metassr/bench/internal/candidates"
	"github.com/metassr/bench/internal/environment"
	"github.com/metassr/bench/internal/gatherer"
	"github.com/metassr/bench/internal/gatherer/natsgath"
	"github.com/metassr/bench/internal/gatherer/sqsgath"
	"github.com/metassr/bench/internal/gatherer/termgath"
	"github.com/metassr/bench/internal/orchestrate"
	"github.com/metassr/bench/internal/report"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/server"
	"github.com/metassr/bench/internal/wrk"
)

func main() {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(log)

	cmd := &cli.Command{
		Name:  "compare",
		Usage: "benchmark several SSR frameworks back to back",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "frameworks", Aliases: []string{"f"},
				Value: []string{"metassr", "nextjs"}, Usage: "candidate keys to benchmark"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: ".bench/apps", Usage: "output directory"},
			&cli.BoolFlag{Name: "docker", Aliases: []string{"d"}, Usage: "run servers in containers"},
			&cli.BoolFlag{Name: "skip-build", Usage: "skip build steps (assumes images/apps are already built)"},
			&cli.StringFlag{Name: "config", Usage: "TOML candidate registry (defaults to the built-in set)"},
			&cli.IntFlag{Name: "duration", Usage: "override every scenario's duration in seconds"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, log)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command, log *slog.Logger) error {
	registry := candidates.Defaults()
	if path := cmd.String("config"); path != "" {
		var err error
		registry, err = candidates.Load(path)
		if err != nil {
			return err
		}
	}

	// Accept names both as flag values and as trailing arguments, so
	// `compare -f metassr nextjs` works like `compare -f metassr -f nextjs`.
	keys := append(cmd.StringSlice("frameworks"), cmd.Args().Slice()...)
	if cmd.Args().Len() > 0 && !cmd.IsSet("frameworks") {
		keys = cmd.Args().Slice()
	}
	cands, err := candidates.Select(registry, keys)
	if err != nil {
		return err
	}

	mode := server.ModeLocal
	if cmd.Bool("docker") {
		mode = server.ModeContainer
	}

	scenarios := scenario.Catalog()
	if d := cmd.Int("duration"); d > 0 {
		scenarios = scenario.CatalogWithDuration(d)
	}

	log.Info("comparison run", "mode", mode, "frameworks", keys)

	store := results.NewStore(string(mode), "")
	gath, cleanup := setupGatherers(ctx, store.RunID(), log)
	defer cleanup()

	orch := orchestrate.New(server.NewManager(log), wrk.NewDriver(log), store, gath, log)
	bundle, runErr := orch.Run(ctx, cands, orchestrate.Options{
		Mode:          mode,
		SkipBuild:     cmd.Bool("skip-build"),
		Scenarios:     scenarios,
		AttachRunning: mode == server.ModeLocal,
		SampleMemory:  mode == server.ModeLocal,
	})

	if len(bundle.Entries) > 0 {
		outDir := filepath.Join(cmd.String("output"), bundle.Timestamp.Format("2006-01-02-15-04-05"))
		if err := report.WriteJSON(bundle, filepath.Join(outDir, "comparison.json")); err != nil {
			return err
		}
		if err := report.WriteMarkdown(bundle, filepath.Join(outDir, "comparison.md")); err != nil {
			return err
		}
		if err := report.WriteRawArchive(bundle, filepath.Join(outDir, "raw.txt.gz")); err != nil {
			return err
		}
		log.Info("reports saved", "dir", outDir)
		report.WriteAnalysis(os.Stdout, bundle)
	}

	if runErr != nil {
		return runErr
	}
	// Scenario-level failures keep exit code zero: partial data is still
	// a successful run. A failed build is not.
	for _, e := range bundle.Entries {
		if e.Status == results.StatusBuildFailed {
			return fmt.Errorf("build failed: %s", e.Failure)
		}
	}
	return nil
}

func setupGatherers(ctx context.Context, runUuid string, log *slog.Logger) (gatherer.Gatherer, func()) {
	env := environment.ReadEnvConfig()
	gs := []gatherer.Gatherer{termgath.New()}
	cleanup := func() {}

	if env.NatsUrl != "" {
		nc, err := nats.Connect(env.NatsUrl)
		if err != nil {
			log.Warn("failed to connect to NATS, progress streaming disabled", "error", err)
		} else {
			gs = append(gs, natsgath.New(nc, runUuid, env.NatsSubject, log))
			cleanup = nc.Close
		}
	}

	if env.SqsQueueUrl != "" {
		g, err := sqsgath.New(ctx, runUuid, env.SqsQueueUrl, env.AwsRegion, log)
		if err != nil {
			log.Warn("failed to set up SQS gatherer", "error", err)
		} else {
			gs = append(gs, g)
		}
	}

	return gatherer.NewMulti(gs...), cleanup
}
