package earthly

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Environment overlay applied to every earthly invocation. NO_DOCKER keeps
// earthly from starting its embedded buildkit container (the runner's own
// daemon is used); FORCE_COLOR keeps log output colored under the
// non-interactive job console.
var overlay = map[string]string{
	"NO_DOCKER":   "1",
	"FORCE_COLOR": "1",
}

// Runner executes the earthly binary resolved from PATH. Output streams are
// inherited from the surrounding job unless overridden (tests).
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer

	// Binary overrides the executable name, for tests only.
	Binary string
}

// Probe runs the binary with --version. Diagnostic only; a probe failure is
// reported the same way as a main-run failure.
func (r *Runner) Probe(ctx context.Context) error {
	return r.Run(ctx, []string{"--version"})
}

// Run executes the binary with args and the fixed env overlay. A spawn
// failure or non-zero exit is returned as-is for the top-level boundary to
// report; no retries, no timeout beyond ctx.
func (r *Runner) Run(ctx context.Context, args []string) error {
	bin := r.Binary
	if bin == "" {
		bin = Binary
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = overlayEnv(os.Environ())
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}

// overlayEnv returns env with the fixed overlay applied deterministically
// (existing entries for overlay keys are dropped, no duplicates).
func overlayEnv(env []string) []string {
	out := env[:0]
	for _, entry := range env {
		name, _, _ := strings.Cut(entry, "=")
		if _, ok := overlay[name]; ok {
			continue
		}
		out = append(out, entry)
	}
	// Fixed append order so the child env is reproducible.
	out = append(out, "FORCE_COLOR="+overlay["FORCE_COLOR"])
	out = append(out, "NO_DOCKER="+overlay["NO_DOCKER"])
	return out
}
