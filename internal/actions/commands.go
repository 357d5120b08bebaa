// Package actions emits GitHub Actions workflow commands and step output.
// When the process is not running under a workflow the commands degrade to
// plain console lines, so local runs stay readable.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// RunningInWorkflow reports whether the process runs under a GitHub runner.
func RunningInWorkflow() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// escapeData escapes a workflow command payload per the runner's rules.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

// Error reports a job-level failure message. Under a workflow the runner
// renders ::error:: as a red annotation on the run.
func Error(w io.Writer, msg string) {
	if RunningInWorkflow() {
		fmt.Fprintf(w, "::error::%s\n", escapeData(msg))
		return
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
}

// Group opens a collapsible log group titled with bold text locally.
func Group(w io.Writer, title string) {
	if RunningInWorkflow() {
		fmt.Fprintf(w, "::group::%s\n", escapeData(title))
		return
	}
	color.New(color.Bold).Fprintf(w, "--- %s\n", title)
}

func EndGroup(w io.Writer) {
	if RunningInWorkflow() {
		fmt.Fprintln(w, "::endgroup::")
	}
}

// Mask registers a secret value with the runner's log filter. Outside a
// workflow there is no log filter, so this is a no-op rather than echoing
// the value anywhere.
func Mask(w io.Writer, value string) {
	if value == "" {
		return
	}
	if RunningInWorkflow() {
		fmt.Fprintf(w, "::add-mask::%s\n", escapeData(value))
	}
}

// AppendPath prepends dir to the process PATH and, when GITHUB_PATH is set,
// appends dir to that file so later workflow steps resolve the tool too.
func AppendPath(dir string) error {
	path := os.Getenv("PATH")
	if path == "" {
		path = dir
	} else {
		path = dir + string(os.PathListSeparator) + path
	}
	if err := os.Setenv("PATH", path); err != nil {
		return fmt.Errorf("updating PATH: %w", err)
	}

	pathFile := os.Getenv("GITHUB_PATH")
	if pathFile == "" {
		return nil
	}
	f, err := os.OpenFile(pathFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening GITHUB_PATH file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, dir); err != nil {
		return fmt.Errorf("writing GITHUB_PATH file: %w", err)
	}
	return nil
}
