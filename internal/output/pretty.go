package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/bgricker/pycheck/internal/logs"
	"github.com/bgricker/pycheck/internal/report"
)

type styles struct {
	title  lipgloss.Style
	step   lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	failed lipgloss.Style
	warn   lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		step:   r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("244")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("42")),
		failed: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("214")),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		border: r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// PrettyRenderer renders progress and the final summary for humans.
type PrettyRenderer struct {
	out    io.Writer
	root   string
	styles styles
}

// NewPretty creates a PrettyRenderer writing to out. Paths are shown relative
// to root.
func NewPretty(out io.Writer, root string, profile termenv.Profile) *PrettyRenderer {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(profile)
	return &PrettyRenderer{out: out, root: root, styles: newStyles(r)}
}

// RunStarted prints the run header and detected tool versions.
func (p *PrettyRenderer) RunStarted(rep report.RunReport) error {
	if _, err := fmt.Fprintln(p.out, p.styles.title.Render("pycheck run "+rep.Stamp)); err != nil {
		return err
	}
	for _, tool := range rep.Tools {
		version := tool.Version
		if version == "" {
			version = "unknown version"
		}
		if _, err := fmt.Fprintf(p.out, "  %s %s\n", tool.Name, p.styles.muted.Render(version)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.out, "  logs: %s\n", logs.Rel(p.root, rep.LogDir))
	return err
}

// StepStarted announces a step before its live output begins.
func (p *PrettyRenderer) StepStarted(index, total int, name, command string) error {
	_, err := fmt.Fprintf(p.out, "\n%s %s\n%s\n",
		p.styles.muted.Render(fmt.Sprintf("[%d/%d]", index+1, total)),
		p.styles.step.Render(name),
		p.styles.muted.Render("$ "+command))
	return err
}

// StepFinished prints a one-line outcome after a step's output.
func (p *PrettyRenderer) StepFinished(index, total int, res report.StepResult) error {
	var line string
	switch {
	case res.OK():
		line = fmt.Sprintf("%s %s passed", p.glyph(res), res.Name)
	case res.Failure == report.FailureExit:
		line = fmt.Sprintf("%s %s failed with exit code %d", p.glyph(res), res.Name, res.ExitCode)
	default:
		line = fmt.Sprintf("%s %s could not run: %s", p.glyph(res), res.Name, res.Error)
	}
	if res.Issues > 0 {
		line += ", " + pluralIssues(res.Issues)
	}
	line += fmt.Sprintf(" (%s)", formatDuration(res.Duration))
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.out, "  %s\n", p.styles.muted.Render(
		fmt.Sprintf("log: %s (%s)", logs.Rel(p.root, res.LogPath), humanize.Bytes(uint64(max(res.LogSize, 0))))))
	return err
}

// RenderSummary prints the per-step table and the aggregate verdict.
func (p *PrettyRenderer) RenderSummary(rep report.RunReport) error {
	rows := make([][]string, 0, len(rep.Steps))
	for _, res := range rep.Steps {
		rows = append(rows, []string{
			res.Name,
			statusLabel(res),
			strconv.Itoa(res.Issues),
			formatDuration(res.Duration),
			logs.Rel(p.root, res.LogPath),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.styles.border).
		Headers("STEP", "STATUS", "ISSUES", "TIME", "LOG").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.header
			}
			if col == 1 && row >= 0 && row < len(rep.Steps) {
				if rep.Steps[row].OK() {
					return p.styles.ok.Padding(0, 1)
				}
				return p.styles.failed.Padding(0, 1)
			}
			return p.styles.cell
		})

	if _, err := fmt.Fprintf(p.out, "\n%s\n", t.Render()); err != nil {
		return err
	}

	passed, failed := rep.Counts()
	var verdict string
	if rep.OK {
		verdict = p.styles.ok.Render(fmt.Sprintf("All %d checks passed", passed))
	} else {
		verdict = p.styles.failed.Render(fmt.Sprintf("%d of %d checks failed", failed, len(rep.Steps)))
	}
	_, err := fmt.Fprintf(p.out, "%s %s\n", verdict, p.styles.muted.Render("in "+formatDuration(rep.Duration)))
	return err
}

// RenderMissingTool prints the remediation for a tool that is not installed.
func (p *PrettyRenderer) RenderMissingTool(tool, hint string) error {
	if _, err := fmt.Fprintf(p.out, "%s %s is not installed\n", p.styles.failed.Render("✗"), tool); err != nil {
		return err
	}
	if hint == "" {
		return nil
	}
	_, err := fmt.Fprintf(p.out, "  install it with: %s\n", p.styles.warn.Render(hint))
	return err
}

func (p *PrettyRenderer) glyph(res report.StepResult) string {
	if res.OK() {
		return p.styles.ok.Render("✓")
	}
	return p.styles.failed.Render("✗")
}

func statusLabel(res report.StepResult) string {
	switch {
	case res.OK():
		return "ok"
	case res.Status == report.StatusNotRun:
		return "not run"
	case res.Failure == report.FailureDirChange:
		return "ABNORMAL (dir)"
	case res.Failure == report.FailureStart:
		return "ABNORMAL (start)"
	default:
		return fmt.Sprintf("FAILED (%d)", res.ExitCode)
	}
}

func pluralIssues(n int) string {
	if n == 1 {
		return "1 issue"
	}
	return fmt.Sprintf("%d issues", n)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
