// Package check declares the verification steps pycheck runs.
package check

import (
	"path/filepath"
	"strings"

	"github.com/bgricker/pycheck/internal/extract"
)

// Step describes one external verification invocation.
type Step struct {
	// Name identifies the step in logs and the summary.
	Name string
	// Tool is the Python module run as `<python> -m <Tool>`.
	Tool string
	// Package is the pip package providing Tool, used for install hints.
	Package string
	// Args are fixed arguments. "{config}" and "{root}" are substituted.
	Args []string
	// Dir is the working directory relative to the project root; empty means the root.
	Dir string
	// ConfigFile is the tool's own config, relative to the config directory.
	ConfigFile string
	// Extractor counts issues in the captured output.
	Extractor extract.Extractor
}

const (
	placeholderConfig = "{config}"
	placeholderRoot   = "{root}"
)

// Defaults returns the fixed style, type and docstring checklist.
func Defaults() []Step {
	return []Step{
		{
			Name:       "flake8",
			Tool:       "flake8",
			Package:    "flake8",
			Args:       []string{"--config", placeholderConfig, placeholderRoot},
			ConfigFile: ".flake8",
			Extractor:  extract.Flake8(),
		},
		{
			Name:       "mypy",
			Tool:       "mypy",
			Package:    "mypy",
			Args:       []string{"--config-file", placeholderConfig, placeholderRoot},
			ConfigFile: "mypy.ini",
			Extractor:  extract.Mypy(),
		},
		{
			Name:       "pydocstyle",
			Tool:       "pydocstyle",
			Package:    "pydocstyle",
			Args:       []string{"--config=" + placeholderConfig, placeholderRoot},
			ConfigFile: ".pydocstyle",
			Extractor:  extract.Pydocstyle(),
		},
	}
}

// Argv renders the full invocation for python, resolving placeholders
// against the project root and config directory.
func (s Step) Argv(python, root, configDir string) []string {
	cfg := s.ConfigFile
	if cfg != "" && !filepath.IsAbs(cfg) {
		cfg = filepath.Join(configDir, cfg)
	}
	argv := []string{python, "-m", s.Tool}
	for _, arg := range s.Args {
		arg = strings.ReplaceAll(arg, placeholderConfig, cfg)
		arg = strings.ReplaceAll(arg, placeholderRoot, root)
		argv = append(argv, arg)
	}
	return argv
}

// WorkingDir resolves Dir against root.
func (s Step) WorkingDir(root string) string {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		return root
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
