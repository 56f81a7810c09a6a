// Package server builds, starts and stops candidate SSR servers, either
// as local child processes or as containers, and owns their lifecycle
// handles.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/metassr/bench/internal/candidates"
)

type Mode string

const (
	ModeLocal     Mode = "local"
	ModeContainer Mode = "container"
)

// stopGrace is how long a local server gets between SIGTERM and SIGKILL.
const stopGrace = 5 * time.Second

// Handle is an exclusively owned running server. It is created by Start
// (or Attach) and must not be used after Stop.
type Handle struct {
	Candidate candidates.Candidate
	Mode      Mode
	BaseURL   string

	proc      *exec.Cmd
	done      chan struct{}
	container string
	// external marks a server the harness did not spawn and must not kill.
	external bool
	stopped  atomic.Bool
}

type Manager struct {
	log    *slog.Logger
	client *http.Client
	docker string

	// ports maps a bound port to the owning candidate key so a start on
	// a port held by a not-yet-stopped handle is refused. Sequential
	// orchestration should make collisions impossible; this is a check,
	// not a scheduler.
	ports  *xsync.MapOf[int, string]
	states *xsync.MapOf[string, State]

	// ReadyTimeout bounds the readiness poll in Start.
	ReadyTimeout time.Duration
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		log:          log,
		client:       &http.Client{Timeout: 2 * time.Second},
		docker:       "docker",
		ports:        xsync.NewMapOf[int, string](),
		states:       xsync.NewMapOf[string, State](),
		ReadyTimeout: 60 * time.Second,
	}
}

func (m *Manager) StateOf(key string) State {
	s, ok := m.states.Load(key)
	if !ok {
		return Unbuilt
	}
	return s
}

func (m *Manager) transition(key string, next State) {
	cur := m.StateOf(key)
	if !cur.canBecome(next) {
		m.log.Warn("invalid lifecycle transition", "candidate", key, "from", cur, "to", next)
		return
	}
	m.states.Store(key, next)
}

// Build runs the candidate's build step: its shell command in local
// mode, a docker image build in container mode.
func (m *Manager) Build(ctx context.Context, cand candidates.Candidate, mode Mode) error {
	var cmd *exec.Cmd
	switch mode {
	case ModeContainer:
		if cand.Image == "" || cand.Dockerfile == "" {
			m.states.Store(cand.Key, Failed)
			return &BuildError{Candidate: cand.Key, Err: fmt.Errorf("no container image configured")}
		}
		m.log.Info("building container image", "candidate", cand.Key, "image", cand.Image)
		cmd = exec.CommandContext(ctx, m.docker, "build",
			"-t", cand.Image,
			"-f", cand.Dockerfile,
			filepath.Dir(cand.Dockerfile),
		)
	default:
		if cand.BuildCmd == "" {
			m.transition(cand.Key, Built)
			return nil
		}
		m.log.Info("building candidate", "candidate", cand.Key, "cmd", cand.BuildCmd)
		cmd = exec.CommandContext(ctx, "bash", "-c", cand.BuildCmd)
		cmd.Dir = cand.Dir
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		m.states.Store(cand.Key, Failed)
		return &BuildError{Candidate: cand.Key, Output: tail(string(out), 500), Err: err}
	}
	m.transition(cand.Key, Built)
	return nil
}

// Start spawns the candidate's server and polls its health check with
// exponential backoff until ready. On any failure every partially
// created process or container is torn down before returning.
func (m *Manager) Start(ctx context.Context, cand candidates.Candidate, mode Mode) (*Handle, error) {
	if owner, loaded := m.ports.LoadOrStore(cand.Port, cand.Key); loaded {
		m.states.Store(cand.Key, Failed)
		return nil, &StartError{
			Candidate: cand.Key,
			Reason:    PortInUse,
			Err:       fmt.Errorf("port %d is still held by %s", cand.Port, owner),
		}
	}
	m.transition(cand.Key, Starting)

	handle := &Handle{Candidate: cand, Mode: mode, BaseURL: cand.BaseURL()}

	var err error
	switch mode {
	case ModeContainer:
		err = m.startContainer(ctx, cand, handle)
	default:
		err = m.startLocal(cand, handle)
	}
	if err != nil {
		m.releasePort(cand)
		m.states.Store(cand.Key, Failed)
		return nil, &StartError{Candidate: cand.Key, Reason: SpawnFailed, Err: err}
	}

	if err := m.waitReady(ctx, cand.HealthURL()); err != nil {
		m.Stop(handle)
		m.states.Store(cand.Key, Failed)
		return nil, &StartError{Candidate: cand.Key, Reason: NotReady, Err: err}
	}

	m.transition(cand.Key, Ready)
	m.log.Info("server ready", "candidate", cand.Key, "url", handle.BaseURL, "mode", mode)
	return handle, nil
}

func (m *Manager) startLocal(cand candidates.Candidate, handle *Handle) error {
	if cand.RunCmd == "" {
		return fmt.Errorf("no run command configured")
	}
	m.log.Info("starting local server", "candidate", cand.Key, "port", cand.Port)
	cmd := exec.Command("bash", "-c", cand.RunCmd)
	cmd.Dir = cand.Dir
	// Own process group so Stop can take down npm-style child trees.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn server process: %w", err)
	}

	handle.proc = cmd
	handle.done = make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(handle.done)
	}()
	return nil
}

func (m *Manager) startContainer(ctx context.Context, cand candidates.Candidate, handle *Handle) error {
	name := cand.Image + "-run"
	// A stale container from an aborted previous run may still hold the name.
	_ = exec.CommandContext(ctx, m.docker, "rm", "-f", name).Run()

	m.log.Info("starting container", "candidate", cand.Key, "container", name, "port", cand.Port)
	out, err := exec.CommandContext(ctx, m.docker, "run", "-d",
		"--name", name,
		"-p", fmt.Sprintf("%d:%d", cand.Port, cand.Port),
		cand.Image,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker run failed: %w: %s", err, tail(string(out), 500))
	}
	handle.container = name
	return nil
}

// Attach wraps an already-listening server the harness did not spawn.
// Stop on such a handle releases bookkeeping but never kills anything.
func (m *Manager) Attach(ctx context.Context, cand candidates.Candidate) (*Handle, error) {
	if !m.IsUp(ctx, cand.HealthURL()) {
		return nil, &StartError{
			Candidate: cand.Key,
			Reason:    NotReady,
			Err:       fmt.Errorf("no server answering at %s", cand.HealthURL()),
		}
	}
	m.ports.Store(cand.Port, cand.Key)
	m.states.Store(cand.Key, Ready)
	return &Handle{Candidate: cand, Mode: ModeLocal, BaseURL: cand.BaseURL(), external: true}, nil
}

// Stop tears the server down. Idempotent: repeated calls on the same
// handle are a no-op. Safe on partially started handles.
func (m *Manager) Stop(handle *Handle) {
	if handle == nil || !handle.stopped.CompareAndSwap(false, true) {
		return
	}
	cand := handle.Candidate

	switch {
	case handle.external:
		// not ours to kill
	case handle.container != "":
		m.log.Info("removing container", "candidate", cand.Key, "container", handle.container)
		_ = exec.Command(m.docker, "rm", "-f", handle.container).Run()
	case handle.proc != nil && handle.proc.Process != nil:
		m.log.Info("stopping local server", "candidate", cand.Key)
		pgid := -handle.proc.Process.Pid
		_ = syscall.Kill(pgid, syscall.SIGTERM)
		select {
		case <-handle.done:
		case <-time.After(stopGrace):
			_ = syscall.Kill(pgid, syscall.SIGKILL)
			<-handle.done
		}
	}

	m.releasePort(cand)
	if m.StateOf(cand.Key) == Ready {
		m.states.Store(cand.Key, Stopped)
	}
}

func (m *Manager) releasePort(cand candidates.Candidate) {
	if owner, ok := m.ports.Load(cand.Port); ok && owner == cand.Key {
		m.ports.Delete(cand.Port)
	}
}

// IsUp issues a single health probe. Any HTTP response counts.
func (m *Manager) IsUp(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (m *Manager) waitReady(ctx context.Context, url string) error {
	m.log.Info("waiting for server", "url", url, "timeout", m.ReadyTimeout)
	deadline, cancel := context.WithTimeout(ctx, m.ReadyTimeout)
	defer cancel()
	return retry.Do(
		func() error {
			if !m.IsUp(deadline, url) {
				return fmt.Errorf("server at %s not responding", url)
			}
			return nil
		},
		retry.Context(deadline),
		retry.Attempts(0),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// Warmup issues count requests so JITs and caches settle before the
// first measured scenario, then lets the server idle briefly.
func (m *Manager) Warmup(ctx context.Context, url string, count int) {
	m.log.Info("warming up server", "url", url, "requests", count)
	for i := 0; i < count; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return
		}
		if resp, err := m.client.Do(req); err == nil {
			resp.Body.Close()
		}
	}
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
