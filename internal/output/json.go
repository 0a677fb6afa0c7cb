package output

import (
	"encoding/json"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/bgricker/pycheck/internal/report"
)

// JSONRenderer emits structured run data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	OK       bool             `json:"ok"`
	ExitCode int              `json:"exit_code"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	Run      report.RunReport `json:"run"`
	Logs     []LogEntry       `json:"logs"`
	Error    string           `json:"error,omitempty"`
	Missing  string           `json:"missing_tool,omitempty"`
	Hint     string           `json:"install_hint,omitempty"`
}

// LogEntry describes one step log on disk.
type LogEntry struct {
	Step      string `json:"step"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
}

// NewReport builds the JSON document for a finished run.
func NewReport(rep report.RunReport) Report {
	passed, failed := rep.Counts()
	out := Report{
		OK:       rep.OK,
		ExitCode: rep.ExitCode(),
		Passed:   passed,
		Failed:   failed,
		Run:      rep,
		Logs:     make([]LogEntry, 0, len(rep.Steps)),
	}
	for _, s := range rep.Steps {
		out.Logs = append(out.Logs, LogEntry{
			Step:      s.Name,
			Path:      s.LogPath,
			Size:      s.LogSize,
			SizeHuman: humanize.Bytes(uint64(max(s.LogSize, 0))),
		})
	}
	return out
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
