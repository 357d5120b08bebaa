package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"earthci/internal/config"
	"earthci/internal/earthly"
	"earthci/internal/engine"
	"earthci/internal/flags"
	gh "earthci/internal/github"
	"earthci/internal/toolcache"

	"github.com/spf13/cobra"
)

var cfg = config.New()

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision earthly and execute the build target",
	Long: `Provision the pinned earthly release and execute the build target.

Context:
	Repository, branch, and pull-request identity are read from the runner
	environment (GITHUB_REPOSITORY, GITHUB_REF_NAME, GITHUB_EVENT_PATH) and
	the registries from OCI_REGISTRY and CACHE_OCI_REGISTRY. Pull-request
	runs write a pr-<number> topic cache and read the trunk cache; branch
	runs read and write a branch-named cache.

Authentication:
	Release downloads work anonymously. A token (--token, GITHUB_TOKEN, or
	gh CLI auth) avoids the anonymous rate limit.

Examples:
  # Plain branch build
  earthci run --target +build

  # PR-style build with extra build args and a published cache
  earthci run --target +release --push --build-args '{"PROFILE":"release"}'

  # Show the earthly invocation without running anything
  earthci run --target +build --dry-run
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyActionInputs(cmd, cfg)

		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := context.Background()
		token, _, err := gh.ResolveToken(ctx, cfg.Runtime.Token)
		if err != nil {
			return fmt.Errorf("resolving GitHub token: %w", err)
		}

		root, err := toolcache.DefaultRoot()
		if err != nil {
			return err
		}
		downloader := toolcache.NewDownloader(
			toolcache.WithToken(token),
			toolcache.WithVerbose(cfg.Runtime.Verbose, nil),
		)
		cache := toolcache.New(root, downloader, func(name, version string) string {
			return toolcache.AssetURL(toolcache.ReleaseBaseURL, "earthly", "earthly", name, version)
		})

		eng := engine.NewEngine(cfg, cache, &earthly.Runner{})
		return eng.Run(ctx)
	},
}

// applyActionInputs fills flags that were not set on the command line from
// the corresponding INPUT_* environment variables, so the binary behaves as
// an action step without any argv plumbing in the workflow. Explicit flags
// always win.
func applyActionInputs(cmd *cobra.Command, cfg *config.Config) {
	fromInput := func(flag string) (string, bool) {
		if cmd != nil && cmd.Flags().Changed(flag) {
			return "", false
		}
		env := flags.InputEnv(flag)
		if env == "" {
			return "", false
		}
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := fromInput(flags.FlagTarget); ok {
		cfg.Inputs.Target = v
	}
	if v, ok := fromInput(flags.FlagPush); ok {
		// The runner passes booleans as strings; anything unparsable is
		// treated as false, matching the original action's loose check.
		push, err := strconv.ParseBool(v)
		cfg.Inputs.Push = err == nil && push
	}
	if v, ok := fromInput(flags.FlagBuildArgs); ok {
		cfg.Inputs.BuildArgsJSON = v
	}
	if v, ok := fromInput(flags.FlagSecrets); ok {
		cfg.Inputs.SecretsJSON = v
	}
	if v, ok := fromInput(flags.FlagVersion); ok {
		cfg.Tool.Version = v
	}
	if v, ok := fromInput(flags.FlagTrunkBranch); ok {
		cfg.Tool.TrunkBranch = v
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Job inputs
	runCmd.Flags().StringVar(&cfg.Inputs.Target, flags.FlagTarget, "", "Earthly build target (required; falls back to INPUT_TARGET)")
	runCmd.Flags().BoolVar(&cfg.Inputs.Push, flags.FlagPush, false, "Enable cache and image publication (falls back to INPUT_PUSH)")
	runCmd.Flags().StringVar(&cfg.Inputs.BuildArgsJSON, flags.FlagBuildArgs, "", "Extra build args as a JSON object of strings (falls back to INPUT_BUILDARGS)")
	runCmd.Flags().StringVar(&cfg.Inputs.SecretsJSON, flags.FlagSecrets, "", "Build secrets as a JSON object of strings (falls back to INPUT_SECRETS)")

	// Tool
	runCmd.Flags().StringVar(&cfg.Tool.Version, flags.FlagVersion, config.DefaultEarthlyVersion, "Earthly release to provision (falls back to INPUT_EARTHLYVERSION)")
	runCmd.Flags().StringVar(&cfg.Tool.TrunkBranch, flags.FlagTrunkBranch, "main", "Trunk branch whose cache PR builds read as baseline (falls back to INPUT_TRUNKBRANCH)")

	// Runtime
	runCmd.Flags().StringVar(&cfg.Runtime.Token, flags.FlagToken, "", "GitHub token for authenticated release downloads (default: GITHUB_TOKEN, then gh CLI auth)")
	runCmd.Flags().BoolVar(&cfg.Runtime.DryRun, flags.FlagDryRun, false, "Resolve context and print the earthly invocation without provisioning or executing")
}
