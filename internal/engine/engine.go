// Package engine runs the build pipeline: resolve context, construct the
// earthly argument list, provision the pinned binary, probe it, execute it.
// Strictly sequential; every failure is terminal for the run.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"earthci/internal/actions"
	"earthci/internal/buildctx"
	"earthci/internal/config"
	"earthci/internal/earthly"
)

// Provisioner guarantees a tool binary is installed and returns its
// directory. Satisfied by *toolcache.Cache.
type Provisioner interface {
	Ensure(ctx context.Context, name, version string) (string, error)
}

// Executor runs the earthly binary. Satisfied by *earthly.Runner.
type Executor interface {
	Probe(ctx context.Context) error
	Run(ctx context.Context, args []string) error
}

type Engine struct {
	cfg         *config.Config
	provisioner Provisioner
	executor    Executor
	out         io.Writer

	// resolve is a test seam over buildctx.Resolve (it reads the process
	// environment and the event payload file).
	resolve func() (*buildctx.Context, error)
}

type Option func(*Engine)

func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

func WithResolver(fn func() (*buildctx.Context, error)) Option {
	return func(e *Engine) { e.resolve = fn }
}

func NewEngine(cfg *config.Config, p Provisioner, x Executor, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		provisioner: p,
		executor:    x,
		out:         os.Stdout,
		resolve:     buildctx.Resolve,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(e)
		}
	}
	return e
}

// Run executes the pipeline once. Errors are returned to the CLI boundary;
// nothing here recovers or retries.
func (e *Engine) Run(ctx context.Context) error {
	bc, err := e.resolve()
	if err != nil {
		return err
	}
	if e.cfg.Runtime.Verbose {
		fmt.Fprintf(e.out, "[verbose] context: repo=%s branch=%s pr=%q cache-registry=%s\n",
			bc.Repository, bc.Branch, bc.PullRequestID, bc.CacheOCIRegistry)
	}

	args := earthly.Arguments(bc, e.cfg)

	// Register secret values with the runner's log filter before anything
	// can echo the argument list, the dry-run print included.
	for _, k := range e.cfg.Inputs.Secrets.Keys() {
		v, _ := e.cfg.Inputs.Secrets.Get(k)
		actions.Mask(e.out, v)
	}

	if e.cfg.Runtime.DryRun {
		fmt.Fprintf(e.out, "%s %s\n", earthly.Binary, strings.Join(args, " "))
		return nil
	}

	actions.Group(e.out, fmt.Sprintf("Provision %s %s", earthly.Binary, e.cfg.Tool.Version))
	dir, err := e.provisioner.Ensure(ctx, earthly.Binary, e.cfg.Tool.Version)
	if err != nil {
		return err
	}
	if err := actions.AppendPath(dir); err != nil {
		return err
	}
	actions.EndGroup(e.out)

	if err := e.executor.Probe(ctx); err != nil {
		return err
	}

	actions.Group(e.out, fmt.Sprintf("Build %s", e.cfg.Inputs.Target))
	if err := e.executor.Run(ctx, args); err != nil {
		return err
	}
	actions.EndGroup(e.out)
	return nil
}
