package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bgricker/pycheck/internal/check"
	"github.com/bgricker/pycheck/internal/extract"
	"github.com/bgricker/pycheck/internal/logs"
	"github.com/bgricker/pycheck/internal/report"
	"github.com/bgricker/pycheck/internal/toolcheck"
)

// ErrDuplicateStep indicates two steps would share a log file.
var ErrDuplicateStep = errors.New("duplicate step name")

// ToolProber confirms a tool is installed before any step runs.
type ToolProber interface {
	Probe(ctx context.Context, module, pkg string) (toolcheck.Info, error)
}

// Progress observes a run as it happens.
type Progress interface {
	RunStarted(rep report.RunReport) error
	StepStarted(index, total int, name, command string) error
	StepFinished(index, total int, res report.StepResult) error
}

// Options configure how the runner executes steps.
type Options struct {
	Root      string
	ConfigDir string
	LogDir    string
	Python    string
	// Stdout receives every step's combined output live, in addition to its log.
	Stdout   io.Writer
	Env      []string
	Now      func() time.Time
	Prober   ToolProber
	Progress Progress
	Logger   *slog.Logger
}

// Runner executes check steps sequentially.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prober == nil {
		opts.Prober = toolcheck.NewProber(opts.Python, opts.Env)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{opts: opts}
}

// RunAll confirms every tool is present, purges the log directory and then
// runs each step exactly once in order. Only a missing tool or an unusable
// log directory returns an error; step failures are recorded in the report.
func (r *Runner) RunAll(ctx context.Context, steps []check.Step) (report.RunReport, error) {
	if err := uniqueNames(steps); err != nil {
		return report.RunReport{}, err
	}
	tools, err := r.precheck(ctx, steps)
	if err != nil {
		return report.RunReport{}, err
	}

	started := r.opts.Now()
	rep := report.RunReport{
		Steps:   make([]report.StepResult, 0, len(steps)),
		Tools:   tools,
		LogDir:  r.opts.LogDir,
		Stamp:   logs.Stamp(started),
		Started: started,
	}

	if err := logs.Reset(r.opts.LogDir); err != nil {
		return rep, err
	}
	r.opts.Logger.Debug("log directory reset", "dir", r.opts.LogDir, "stamp", rep.Stamp)

	if r.opts.Progress != nil {
		if err := r.opts.Progress.RunStarted(rep); err != nil {
			return rep, err
		}
	}

	for i, step := range steps {
		if r.opts.Progress != nil {
			command := strings.Join(step.Argv(r.opts.Python, r.opts.Root, r.opts.ConfigDir), " ")
			if err := r.opts.Progress.StepStarted(i, len(steps), step.Name, command); err != nil {
				return rep, err
			}
		}

		res := r.runStep(ctx, step, rep.Stamp)
		rep.Add(res)
		r.opts.Logger.Debug("step finished",
			"step", res.Name,
			"status", res.Status,
			"exit_code", res.ExitCode,
			"issues", res.Issues,
			"duration", res.Duration)

		if r.opts.Progress != nil {
			if err := r.opts.Progress.StepFinished(i, len(steps), res); err != nil {
				return rep, err
			}
		}
	}

	rep.OK = report.Verdict(rep.Steps)
	rep.Duration = r.opts.Now().Sub(started)
	rep.DurationMS = rep.Duration.Milliseconds()
	return rep, nil
}

func (r *Runner) precheck(ctx context.Context, steps []check.Step) ([]report.ToolInfo, error) {
	seen := make(map[string]struct{}, len(steps))
	tools := make([]report.ToolInfo, 0, len(steps))
	for _, step := range steps {
		if _, ok := seen[step.Tool]; ok {
			continue
		}
		seen[step.Tool] = struct{}{}

		info, err := r.opts.Prober.Probe(ctx, step.Tool, step.Package)
		if err != nil {
			r.opts.Logger.Debug("tool missing", "tool", step.Tool, "err", err)
			var nf *toolcheck.NotFoundError
			if errors.As(err, &nf) {
				return nil, err
			}
			return nil, &toolcheck.NotFoundError{
				Tool: step.Tool,
				Hint: toolcheck.InstallHint(r.opts.Python, step.Package),
				Err:  err,
			}
		}
		r.opts.Logger.Debug("tool found", "tool", step.Tool, "version", info.Version)
		tools = append(tools, report.ToolInfo{Name: step.Tool, Version: info.Version})
	}
	return tools, nil
}

func uniqueNames(steps []check.Step) error {
	seen := make(map[string]string, len(steps))
	for _, step := range steps {
		slug := logs.Slug(step.Name)
		if prev, ok := seen[slug]; ok {
			return fmt.Errorf("%w: %q and %q both log to %s", ErrDuplicateStep, prev, step.Name, logs.FileName(step.Name, "<stamp>"))
		}
		seen[slug] = step.Name
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step check.Step, stamp string) (result report.StepResult) {
	argv := step.Argv(r.opts.Python, r.opts.Root, r.opts.ConfigDir)
	result = report.StepResult{
		Name:    step.Name,
		Command: strings.Join(argv, " "),
		Dir:     step.WorkingDir(r.opts.Root),
		LogPath: logs.Path(r.opts.LogDir, step.Name, stamp),
		Status:  report.StatusNotRun,
	}

	start := r.opts.Now()
	defer func() {
		result.Duration = r.opts.Now().Sub(start)
		result.DurationMS = result.Duration.Milliseconds()
	}()

	logFile, err := os.Create(result.LogPath)
	if err != nil {
		r.abnormal(&result, report.FailureStart, report.StartExitCode, fmt.Errorf("create log %q: %w", result.LogPath, err), nil)
		return result
	}

	if err := checkDir(result.Dir); err != nil {
		r.abnormal(&result, report.FailureDirChange, report.DirChangeExitCode, err, logFile)
		finishLog(logFile, &result, nil)
		return result
	}

	out := io.MultiWriter(r.opts.Stdout, logFile)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = result.Dir
	cmd.Env = r.opts.Env
	cmd.Stdout = out
	cmd.Stderr = out

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Status = report.StatusOK
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.Status = report.StatusFailed
		result.Failure = report.FailureExit
		result.ExitCode = exitCode(exitErr)
	default:
		r.abnormal(&result, report.FailureStart, report.StartExitCode, fmt.Errorf("start %s: %w", step.Tool, err), logFile)
	}

	finishLog(logFile, &result, step.Extractor)
	return result
}

// abnormal records a failure that happened outside the tool itself and
// writes the reason to the step log and live output.
func (r *Runner) abnormal(result *report.StepResult, kind report.Failure, code int, err error, logFile io.Writer) {
	result.Status = report.StatusFailed
	result.Failure = kind
	result.ExitCode = code
	result.Error = err.Error()

	msg := fmt.Sprintf("pycheck: %s: %v\n", result.Name, err)
	w := r.opts.Stdout
	if logFile != nil {
		w = io.MultiWriter(r.opts.Stdout, logFile)
	}
	_, _ = io.WriteString(w, msg)
}

func finishLog(f *os.File, result *report.StepResult, ex extract.Extractor) {
	_ = f.Close()
	if info, err := os.Stat(result.LogPath); err == nil {
		result.LogSize = info.Size()
	}
	result.Issues = extract.CountFile(result.LogPath, ex)
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("working directory %q not found", dir)
		}
		return fmt.Errorf("stat working directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory %q is not a directory", dir)
	}
	return nil
}

func exitCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok && status.ExitStatus() >= 0 {
		return status.ExitStatus()
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	// Killed by a signal; keep negative codes reserved for abnormal failures.
	return 1
}
