package cli

import (
	"fmt"
	"os"

	"earthci/internal/actions"
	"earthci/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "earthci",
	Short: "Provision earthly and run a build target with CI-derived cache flags",
	Long: `earthci wraps the earthly build tool for CI jobs.

It installs a pinned earthly release into the runner tool cache, derives
remote-cache flags from the repository, branch, and pull-request context,
and invokes earthly with the job's build args, secrets, and target.

Examples:
	# Show available commands and global flags
	earthci --help

	# Run a build target
	earthci run --target +build

	# Print build info
	earthci version

Inputs:
	When running as a GitHub Action step, flags fall back to the action's
	INPUT_* environment variables, so "earthci run" alone is enough.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (resolved context and download HTTP traffic)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// Execute is the single error boundary: any error from any command is
// reported once (as a workflow error annotation under Actions) and the
// process exits 1. No exit-code taxonomy beyond success/failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		actions.Error(os.Stderr, err.Error())
		os.Exit(1)
	}
}
