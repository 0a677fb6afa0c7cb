package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pycheck",
		Short: "pycheck runs flake8, mypy and pydocstyle and summarises the results",
		Long: `pycheck runs flake8, mypy and pydocstyle against the current project in that
order. Every check runs even if an earlier one fails. Output streams live and is
also written to one log per check under logs/, which is purged at the start of
every run.

Tool config files are read from config/. Set PYCHECK_PYTHON to choose the
interpreter (default python3). Optional settings live in .pycheck.yml.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runChecks,
	}
}
