package results

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/metassr/bench/internal/candidates"
)

// MalformedInputError means a results file could not be decoded into a
// bundle. Fatal to analyze-only invocations.
type MalformedInputError struct {
	Path string
	Err  error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed results file %s: %v", e.Path, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Store builds a bundle incrementally during a run. It is used from the
// orchestrator's single thread of control; the pair set only guards the
// at-most-once recording invariant.
type Store struct {
	bundle   Bundle
	index    map[string]int
	recorded mapset.Set[string]
}

func NewStore(mode, serverURL string) *Store {
	return &Store{
		bundle: Bundle{
			RunID:     uuid.NewString(),
			Timestamp: time.Now(),
			Mode:      mode,
			ServerURL: serverURL,
			System:    CollectSystemInfo(),
			Entries:   []Entry{},
		},
		index:    map[string]int{},
		recorded: mapset.NewSet[string](),
	}
}

// AddCandidate appends an entry for the candidate in execution order.
func (s *Store) AddCandidate(cand candidates.Candidate) error {
	if _, dup := s.index[cand.Key]; dup {
		return fmt.Errorf("candidate %q already in bundle", cand.Key)
	}
	s.index[cand.Key] = len(s.bundle.Entries)
	s.bundle.Entries = append(s.bundle.Entries, Entry{
		Candidate: cand,
		Status:    StatusOK,
		Results:   []ScenarioResult{},
	})
	return nil
}

// MarkFailed turns the candidate's entry into a failure sentinel.
func (s *Store) MarkFailed(candKey string, status EntryStatus, reason string) error {
	i, ok := s.index[candKey]
	if !ok {
		return fmt.Errorf("candidate %q not in bundle", candKey)
	}
	s.bundle.Entries[i].Status = status
	s.bundle.Entries[i].Failure = reason
	return nil
}

// Record appends one scenario result. Each (candidate, scenario) pair
// may be recorded at most once.
func (s *Store) Record(candKey string, res ScenarioResult) error {
	i, ok := s.index[candKey]
	if !ok {
		return fmt.Errorf("candidate %q not in bundle", candKey)
	}
	pair := candKey + "\x00" + res.Scenario.Name
	if !s.recorded.Add(pair) {
		return fmt.Errorf("scenario %q already recorded for candidate %q", res.Scenario.Name, candKey)
	}
	s.bundle.Entries[i].Results = append(s.bundle.Entries[i].Results, res)
	return nil
}

func (s *Store) Bundle() Bundle { return s.bundle }

func (s *Store) RunID() string { return s.bundle.RunID }

// Load reads a bundle previously written by report.WriteJSON, for
// analyze-only replay.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read results file: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, &MalformedInputError{Path: path, Err: err}
	}
	if b.RunID == "" || b.Entries == nil {
		return Bundle{}, &MalformedInputError{Path: path, Err: fmt.Errorf("missing run_id or entries")}
	}
	return b, nil
}
