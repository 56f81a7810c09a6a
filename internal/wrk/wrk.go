// Package wrk drives the external wrk load generator and parses its
// textual report into structured metrics.
package wrk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/metassr/bench/internal/scenario"
)

// killGrace bounds how long a cancelled wrk process may linger between
// SIGTERM and SIGKILL.
const killGrace = 5 * time.Second

type Driver struct {
	binary string
	log    *slog.Logger
}

func NewDriver(log *slog.Logger) *Driver {
	return &Driver{binary: "wrk", log: log}
}

// Check verifies the wrk binary is installed. The orchestrator calls it
// once up front so a missing generator aborts before any server starts.
func (d *Driver) Check() error {
	if _, err := exec.LookPath(d.binary); err != nil {
		return fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}
	return nil
}

// Run executes one scenario against targetURL and blocks for the full
// scenario duration. Cancelling ctx terminates the subprocess and
// returns ErrCancelled.
func (d *Driver) Run(ctx context.Context, sc scenario.Scenario, targetURL string) (*MetricRecord, error) {
	cmd := exec.CommandContext(ctx, d.binary,
		fmt.Sprintf("-t%d", sc.Threads),
		fmt.Sprintf("-c%d", sc.Connections),
		fmt.Sprintf("-d%ds", sc.DurationSec),
		"--latency",
		targetURL,
	)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = killGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	d.log.Info("running load scenario",
		"scenario", sc.Name,
		"threads", sc.Threads,
		"connections", sc.Connections,
		"duration", sc.Duration(),
		"url", targetURL)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrToolNotFound, err)
		}
		return nil, fmt.Errorf("failed to start wrk: %w", err)
	}

	var outBuf, errBuf bytes.Buffer
	drain := errgroup.Group{}
	drain.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	if err := drain.Wait(); err != nil {
		d.log.Warn("failed to drain wrk output", "error", err)
	}

	waitErr := cmd.Wait()

	if waitErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(errBuf.String(), 500),
			}
		}
		return nil, fmt.Errorf("wrk did not run: %w", waitErr)
	}
	// A cancellation that lands after wrk already exited cleanly does not
	// invalidate the report.

	// wrk writes the report to stdout but some builds log socket errors
	// to stderr, so parse both.
	return Parse(outBuf.String() + errBuf.String())
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
