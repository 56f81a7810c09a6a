// Package api defines the wire messages the harness publishes to result
// gatherers while a benchmark run progresses.
package api

const (
	MsgTypeStartedRun        = "started_run"
	MsgTypeStartedCandidate  = "started_candidate"
	MsgTypeStartedBuild      = "started_build"
	MsgTypeFinishedBuild     = "finished_build"
	MsgTypeStartedScenario   = "started_scenario"
	MsgTypeFinishedScenario  = "finished_scenario"
	MsgTypeFinishedCandidate = "finished_candidate"
	MsgTypeFinishedRun       = "finished_run"
)

type Header struct {
	RunUuid string `json:"run_uuid"`
	MsgType string `json:"msg_type"`
}

type StartedRun struct {
	Header
	SystemInfo string `json:"system_info"`
}

type StartedCandidate struct {
	Header
	Candidate string `json:"candidate"`
	Mode      string `json:"mode"`
}

type StartedBuild struct {
	Header
	Candidate string `json:"candidate"`
}

type FinishedBuild struct {
	Header
	Candidate    string  `json:"candidate"`
	ErrorMessage *string `json:"error_message"`
}

type StartedScenario struct {
	Header
	Candidate   string `json:"candidate"`
	Scenario    string `json:"scenario"`
	Threads     int    `json:"threads"`
	Connections int    `json:"connections"`
	DurationSec int    `json:"duration"`
}

type FinishedScenario struct {
	Header
	Candidate    string   `json:"candidate"`
	Scenario     string   `json:"scenario"`
	Metrics      *Metrics `json:"metrics"`
	ErrorMessage *string  `json:"error_message"`
}

type FinishedCandidate struct {
	Header
	Candidate string `json:"candidate"`
	Status    string `json:"status"`
}

type FinishedRun struct {
	Header
	ErrorMessage *string `json:"error_message"`
}

func NewStartedRun(runUuid string, systemInfo string) StartedRun {
	return StartedRun{
		Header:     Header{RunUuid: runUuid, MsgType: MsgTypeStartedRun},
		SystemInfo: systemInfo,
	}
}

func NewStartedCandidate(runUuid, candidate, mode string) StartedCandidate {
	return StartedCandidate{
		Header:    Header{RunUuid: runUuid, MsgType: MsgTypeStartedCandidate},
		Candidate: candidate,
		Mode:      mode,
	}
}

func NewStartedBuild(runUuid, candidate string) StartedBuild {
	return StartedBuild{
		Header:    Header{RunUuid: runUuid, MsgType: MsgTypeStartedBuild},
		Candidate: candidate,
	}
}

func NewFinishedBuild(runUuid, candidate string, errMsg *string) FinishedBuild {
	return FinishedBuild{
		Header:       Header{RunUuid: runUuid, MsgType: MsgTypeFinishedBuild},
		Candidate:    candidate,
		ErrorMessage: errMsg,
	}
}

func NewStartedScenario(runUuid, candidate, scenarioName string, threads, conns, durationSec int) StartedScenario {
	return StartedScenario{
		Header:      Header{RunUuid: runUuid, MsgType: MsgTypeStartedScenario},
		Candidate:   candidate,
		Scenario:    scenarioName,
		Threads:     threads,
		Connections: conns,
		DurationSec: durationSec,
	}
}

func NewFinishedScenario(runUuid, candidate, scenarioName string, metrics *Metrics, errMsg *string) FinishedScenario {
	return FinishedScenario{
		Header:       Header{RunUuid: runUuid, MsgType: MsgTypeFinishedScenario},
		Candidate:    candidate,
		Scenario:     scenarioName,
		Metrics:      metrics,
		ErrorMessage: errMsg,
	}
}

func NewFinishedCandidate(runUuid, candidate, status string) FinishedCandidate {
	return FinishedCandidate{
		Header:    Header{RunUuid: runUuid, MsgType: MsgTypeFinishedCandidate},
		Candidate: candidate,
		Status:    status,
	}
}

func NewFinishedRun(runUuid string, errMsg *string) FinishedRun {
	return FinishedRun{
		Header:       Header{RunUuid: runUuid, MsgType: MsgTypeFinishedRun},
		ErrorMessage: errMsg,
	}
}
