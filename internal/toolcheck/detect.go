// Package toolcheck verifies that the external checkers are installed before
// a run starts.
package toolcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ErrToolNotFound is matched by every NotFoundError.
var ErrToolNotFound = errors.New("tool not found")

// NotFoundError names a missing tool and how to install it.
type NotFoundError struct {
	Tool string
	Hint string
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s is not installed", e.Tool)
	if e.Hint != "" {
		msg += "; install it with: " + e.Hint
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Is reports ErrToolNotFound so callers can match on the sentinel.
func (e *NotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// Info captures a tool version installed on the system.
type Info struct {
	Name    string
	Version string
}

var versionRegex = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// Prober probes Python tools through one interpreter.
type Prober struct {
	Python string
	Env    []string
}

// NewProber creates a prober for the given interpreter.
func NewProber(python string, env []string) *Prober {
	return &Prober{Python: python, Env: env}
}

// Probe runs `<python> -m <module> --version`. A missing interpreter or module
// yields a NotFoundError carrying a pip install hint for pkg.
func (p *Prober) Probe(ctx context.Context, module, pkg string) (Info, error) {
	if _, err := exec.LookPath(p.Python); err != nil {
		return Info{}, &NotFoundError{
			Tool: p.Python,
			Hint: "install Python 3 or set PYCHECK_PYTHON to an interpreter on PATH",
			Err:  err,
		}
	}
	out, err := p.run(ctx, "-m", module, "--version")
	if err != nil {
		return Info{}, &NotFoundError{
			Tool: module,
			Hint: InstallHint(p.Python, pkg),
			Err:  fmt.Errorf("%s -m %s --version: %w: %s", p.Python, module, err, out),
		}
	}
	return Info{Name: module, Version: ParseVersion(out)}, nil
}

func (p *Prober) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, p.Python, args...)
	cmd.Stdin = nil
	if p.Env != nil {
		cmd.Env = p.Env
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return strings.TrimSpace(buf.String()), err
	}
	return strings.TrimSpace(buf.String()), nil
}

// ParseVersion extracts the first dotted version number from out.
func ParseVersion(out string) string {
	match := versionRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// InstallHint renders the pip command that installs pkg for python.
func InstallHint(python, pkg string) string {
	if pkg == "" {
		return ""
	}
	return fmt.Sprintf("%s -m pip install %s", python, pkg)
}

// Missing reports whether err means a tool could not be found.
func Missing(err error) bool {
	return errors.Is(err, ErrToolNotFound) || errors.Is(err, exec.ErrNotFound)
}
