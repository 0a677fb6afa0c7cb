// Package extract counts diagnostics in captured tool output.
//
// Counts are heuristics over free-form text. They never fail: anything
// that cannot be read or matched counts as zero.
package extract

import (
	"bufio"
	"io"
	"os"
	"regexp"
)

// Extractor counts issues in a tool's captured output.
type Extractor interface {
	Count(r io.Reader) int
}

// LinePattern counts lines matching a regular expression.
type LinePattern struct {
	Name string
	re   *regexp.Regexp
}

// NewLinePattern compiles expr into a line counter. It panics on an invalid
// expression, like regexp.MustCompile, since patterns are fixed at build time.
func NewLinePattern(name, expr string) *LinePattern {
	return &LinePattern{Name: name, re: regexp.MustCompile(expr)}
}

// Count implements Extractor.
func (p *LinePattern) Count(r io.Reader) int {
	if p == nil || p.re == nil || r == nil {
		return 0
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		if p.re.Match(scanner.Bytes()) {
			n++
		}
	}
	// A read error mid-stream keeps whatever was counted so far.
	return n
}

var (
	flake8Pattern     = `^\S.*:\d+:\d+: [A-Z]+\d+ `
	mypyPattern       = `^\S.*:\d+(:\d+)?: error: `
	pydocstylePattern = `^\S.*:\d+ (in|at) `
)

// Flake8 matches "path:line:col: CODE message".
func Flake8() *LinePattern { return NewLinePattern("flake8", flake8Pattern) }

// Mypy matches "path:line[:col]: error: message". Notes and the trailing
// "Found N errors" summary are not counted.
func Mypy() *LinePattern { return NewLinePattern("mypy", mypyPattern) }

// Pydocstyle matches the "path:line in public function `f`:" header of each
// violation; the indented detail line that follows is ignored.
func Pydocstyle() *LinePattern { return NewLinePattern("pydocstyle", pydocstylePattern) }

// CountFile applies ex to the file at path. Missing or unreadable files count 0.
func CountFile(path string, ex Extractor) int {
	if ex == nil || path == "" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return ex.Count(f)
}
