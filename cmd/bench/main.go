// Command bench runs the standard scenario battery against a single
// SSR server and writes results.json plus a markdown summary.
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
		Name:  "bench",
		Usage: "benchmark a single SSR server with the standard scenario battery",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Value: "http://localhost:8080", Usage: "server URL"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "server port"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: ".bench", Usage: "output directory"},
			&cli.BoolFlag{Name: "skip-build", Aliases: []string{"s"}, Usage: "skip building, assume server is handled externally"},
			&cli.StringFlag{Name: "analyze-only", Usage: "only analyze an existing results.json FILE"},
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
	outputDir := cmd.String("output")

	if file := cmd.String("analyze-only"); file != "" {
		return analyzeOnly(file, outputDir)
	}

	url := cmd.String("url")
	port := cmd.Int("port")
	if cmd.IsSet("port") {
		url = fmt.Sprintf("http://localhost:%d", port)
	}

	cand := candidates.Defaults()[0]
	cand.Port = port

	store := results.NewStore(string(server.ModeLocal), url)
	gath, cleanup := setupGatherers(ctx, store.RunID(), log)
	defer cleanup()

	orch := orchestrate.New(server.NewManager(log), wrk.NewDriver(log), store, gath, log)
	bundle, err := orch.Run(ctx, []candidates.Candidate{cand}, orchestrate.Options{
		Mode:          server.ModeLocal,
		SkipBuild:     cmd.Bool("skip-build"),
		AttachRunning: true,
		SampleMemory:  true,
	})
	if err != nil {
		return err
	}

	if err := writeArtifacts(bundle, outputDir); err != nil {
		return err
	}
	log.Info("results saved", "dir", outputDir)
	report.WriteAnalysis(os.Stdout, bundle)

	// Scenario-level failures keep exit code zero: partial data is still
	// a successful run. A failed build is not.
	for _, e := range bundle.Entries {
		if e.Status == results.StatusBuildFailed {
			return fmt.Errorf("build failed: %s", e.Failure)
		}
	}
	return nil
}

func analyzeOnly(file, outputDir string) error {
	bundle, err := results.Load(file)
	if err != nil {
		return err
	}
	report.WriteAnalysis(os.Stdout, bundle)
	return report.WriteMarkdown(bundle, filepath.Join(outputDir, "summary.md"))
}

func writeArtifacts(bundle results.Bundle, outputDir string) error {
	if err := report.WriteJSON(bundle, filepath.Join(outputDir, "results.json")); err != nil {
		return err
	}
	if err := report.WriteMarkdown(bundle, filepath.Join(outputDir, "summary.md")); err != nil {
		return err
	}
	return report.WriteRawArchive(bundle, filepath.Join(outputDir, "raw.txt.gz"))
}

// setupGatherers wires the terminal gatherer plus any remote transports
// configured in the environment.
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
