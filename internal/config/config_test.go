package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMergesFile(t *testing.T) {
	root := t.TempDir()
	data := []byte(`python: /opt/py/bin/python
log_dir: build/lint-logs
format: JSON
color: never
`)
	if err := os.WriteFile(filepath.Join(root, FileName), data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Python != "/opt/py/bin/python" || cfg.LogDir != "build/lint-logs" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Format != FormatJSON || cfg.Color != ColorNever {
		t.Fatalf("expected lowercased enums, got %+v", cfg)
	}
	if cfg.ConfigDir != DefaultConfigDir {
		t.Fatalf("expected default config dir, got %q", cfg.ConfigDir)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax": "python: [unterminated\n",
		"format": "format: xml\n",
		"color":  "color: sometimes\n",
	}
	for name, body := range cases {
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, FileName), []byte(body), 0o644); err != nil {
			t.Fatalf("%s: write config: %v", name, err)
		}
		if _, err := Load(root); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if !strings.Contains(err.Error(), FileName) {
			t.Fatalf("%s: expected error to name the file, got %v", name, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPython:  " python3.12 ",
		EnvDebug:   "true",
		EnvNoColor: "1",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	if cfg.Python != "python3.12" {
		t.Fatalf("expected interpreter override, got %q", cfg.Python)
	}
	if !cfg.Debug {
		t.Fatalf("expected debug enabled")
	}
	if cfg.Color != ColorNever {
		t.Fatalf("expected NO_COLOR to disable colour, got %q", cfg.Color)
	}

	untouched := Default()
	ApplyEnv(&untouched, func(string) string { return "" })
	if untouched != Default() {
		t.Fatalf("expected no changes, got %+v", untouched)
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	if got := Resolve(root, "logs"); got != filepath.Join(root, "logs") {
		t.Fatalf("unexpected relative resolve %q", got)
	}
	abs := filepath.Join(root, "elsewhere")
	if got := Resolve(root, abs); got != abs {
		t.Fatalf("unexpected absolute resolve %q", got)
	}
}

func TestCheckLogDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	cfgDir := filepath.Join(root, DefaultConfigDir)

	cases := []struct {
		name   string
		logDir string
		ok     bool
	}{
		{"default", filepath.Join(root, DefaultLogDir), true},
		{"nested", filepath.Join(root, "build", "logs"), true},
		{"inside config dir", filepath.Join(cfgDir, "logs"), true},
		{"dotdot-prefixed name", filepath.Join(root, "..logs"), true},
		{"root", root, false},
		{"ancestor", filepath.Dir(root), false},
		{"sibling", filepath.Join(filepath.Dir(root), "logs"), false},
		{"config dir", cfgDir, false},
	}
	for _, c := range cases {
		err := CheckLogDir(root, c.logDir, cfgDir)
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%s: expected %q to be rejected", c.name, c.logDir)
		}
	}

	parentOfConfig := filepath.Join(root, "tooling")
	if err := CheckLogDir(root, parentOfConfig, filepath.Join(parentOfConfig, "config")); err == nil {
		t.Fatalf("expected log dir containing the config dir to be rejected")
	}
}
