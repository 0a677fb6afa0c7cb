package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bgricker/pycheck/internal/check"
	"github.com/bgricker/pycheck/internal/config"
	"github.com/bgricker/pycheck/internal/output"
	"github.com/bgricker/pycheck/internal/runner"
	"github.com/bgricker/pycheck/internal/toolcheck"
	"github.com/spf13/cobra"
)

var errChecksFailed = errors.New("one or more checks failed")

// reportedError marks an error whose details were already rendered.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func runChecks(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Debug)
	logger.Debug("configuration loaded", "root", root, "python", cfg.Python, "log_dir", cfg.LogDir, "format", cfg.Format)

	opts := runner.Options{
		Root:      root,
		ConfigDir: config.Resolve(root, cfg.ConfigDir),
		LogDir:    config.Resolve(root, cfg.LogDir),
		Python:    cfg.Python,
		Stdout:    cmd.OutOrStdout(),
		Logger:    logger,
	}

	var pretty *output.PrettyRenderer
	switch cfg.Format {
	case config.FormatPretty:
		pretty = output.NewPretty(cmd.OutOrStdout(), root, output.Profile(cmd.OutOrStdout(), cfg.Color))
		opts.Progress = pretty
	case config.FormatJSON:
		// Keep stdout a single JSON document; tool output still streams live.
		opts.Stdout = cmd.ErrOrStderr()
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	rep, err := runner.New(opts).RunAll(cmd.Context(), check.Defaults())
	if err != nil {
		var missing *toolcheck.NotFoundError
		if !errors.As(err, &missing) {
			return err
		}
		if pretty != nil {
			errRenderer := output.NewPretty(cmd.ErrOrStderr(), root, output.Profile(cmd.ErrOrStderr(), cfg.Color))
			if renderErr := errRenderer.RenderMissingTool(missing.Tool, missing.Hint); renderErr != nil {
				return err
			}
		} else {
			doc := output.Report{
				ExitCode: 1,
				Error:    err.Error(),
				Missing:  missing.Tool,
				Hint:     missing.Hint,
			}
			if renderErr := output.NewJSON(cmd.OutOrStdout()).Render(doc); renderErr != nil {
				return err
			}
		}
		return &reportedError{err: err}
	}

	if pretty != nil {
		if err := pretty.RenderSummary(rep); err != nil {
			return err
		}
	} else {
		if err := output.NewJSON(cmd.OutOrStdout()).Render(output.NewReport(rep)); err != nil {
			return err
		}
	}

	if !rep.OK {
		return &reportedError{err: errChecksFailed}
	}
	return nil
}

func loadConfig() (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	if err := config.CheckLogDir(root, config.Resolve(root, cfg.LogDir), config.Resolve(root, cfg.ConfigDir)); err != nil {
		return config.Config{}, "", err
	}

	return cfg, root, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
