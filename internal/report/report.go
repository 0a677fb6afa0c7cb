package report

import "time"

// Status is the simplified outcome of a single step.
type Status string

const (
	StatusNotRun Status = "not_run"
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Failure distinguishes why a failed step failed.
type Failure string

const (
	FailureNone Failure = ""
	// FailureExit means the tool ran and exited non-zero.
	FailureExit Failure = "exit"
	// FailureDirChange means the step's working directory could not be entered.
	FailureDirChange Failure = "dir_change"
	// FailureStart means the process could not be started at all.
	FailureStart Failure = "start"
)

const (
	// DirChangeExitCode is recorded when a step never started because its
	// working directory was unusable. No real process can exit with it.
	DirChangeExitCode = -1
	// StartExitCode is recorded when the executable could not be launched.
	StartExitCode = 127
)

// StepResult captures the outcome of a single step.
type StepResult struct {
	Name       string        `json:"name"`
	Command    string        `json:"command"`
	Dir        string        `json:"dir"`
	LogPath    string        `json:"log_path"`
	LogSize    int64         `json:"log_size"`
	Status     Status        `json:"status"`
	Failure    Failure       `json:"failure,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Issues     int           `json:"issues"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}

// OK reports whether the step ran and exited zero.
func (s StepResult) OK() bool {
	return s.Status == StatusOK
}

// ToolInfo records what the precheck found for a tool.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// RunReport aggregates one run's step results in execution order.
type RunReport struct {
	Steps      []StepResult  `json:"steps"`
	Tools      []ToolInfo    `json:"tools,omitempty"`
	OK         bool          `json:"ok"`
	LogDir     string        `json:"log_dir"`
	Stamp      string        `json:"stamp"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Add appends a result and refreshes the verdict.
func (r *RunReport) Add(res StepResult) {
	r.Steps = append(r.Steps, res)
	r.OK = Verdict(r.Steps)
}

// Counts returns how many steps passed and failed.
func (r RunReport) Counts() (passed, failed int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StatusOK:
			passed++
		case StatusFailed:
			failed++
		}
	}
	return passed, failed
}

// ExitCode maps the verdict onto a process exit code.
func (r RunReport) ExitCode() int {
	if r.OK {
		return 0
	}
	return 1
}

// Verdict is the logical AND of every step's status. Steps that never ran
// count against it.
func Verdict(steps []StepResult) bool {
	for _, s := range steps {
		if !s.OK() {
			return false
		}
	}
	return true
}
