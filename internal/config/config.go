package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultEarthlyVersion is the pinned earthly release provisioned when the
// job does not request a specific version.
const DefaultEarthlyVersion = "0.8.15"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in
	// sync:
	// - CLI flags in internal/cli/run.go
	// - INPUT_* fallback mapping in internal/flags/flags.go
	Inputs  Inputs
	Tool    Tool
	Runtime Runtime
}

type Inputs struct {
	// Target is the earthly build target, appended as the final positional
	// argument (see --target / INPUT_TARGET). Required.
	Target string

	// Push appends earthly's --push flag, enabling cache and image
	// publication (see --push / INPUT_PUSH).
	Push bool

	// BuildArgsJSON is the raw JSON object of extra build args supplied by
	// the job (see --build-args / INPUT_BUILDARGS). Parsed by Validate.
	BuildArgsJSON string

	// SecretsJSON is the raw JSON object of build secrets supplied by the
	// job (see --secrets / INPUT_SECRETS). Parsed by Validate.
	SecretsJSON string

	// BuildArgs and Secrets are the parsed forms, populated by Validate.
	// Iteration order follows the JSON document order.
	BuildArgs *ArgMap
	Secrets   *ArgMap
}

type Tool struct {
	// Version is the earthly release to provision, without the "v" prefix
	// (see --earthly-version / INPUT_EARTHLYVERSION).
	Version string

	// TrunkBranch is the branch whose cache image pull-request builds read
	// as their shared baseline (see --trunk-branch / INPUT_TRUNKBRANCH).
	// The original behavior hardcoded "main"; the assumption is now an
	// explicit input with the same default.
	TrunkBranch string
}

type Runtime struct {
	// Token is an explicit GitHub token for authenticated release downloads
	// (see --token). GITHUB_TOKEN and gh CLI auth are used as fallbacks.
	Token string

	// DryRun resolves the build context and prints the earthly argument
	// list without provisioning or executing anything (see --dry-run).
	DryRun bool

	// Verbose logs the resolved context and download HTTP traffic.
	Verbose bool
}

func New() *Config {
	return &Config{
		Tool: Tool{
			Version:     DefaultEarthlyVersion,
			TrunkBranch: "main",
		},
	}
}

// Validate normalizes and checks the configuration, parsing the raw JSON
// inputs into their ordered forms. It must be called once before the config
// is handed to the engine; no field is re-read from the environment after
// this point.
func (c *Config) Validate() error {
	c.Inputs.Target = strings.TrimSpace(c.Inputs.Target)
	if c.Inputs.Target == "" {
		return errors.New("--target (or the target input) is required")
	}

	c.Tool.Version = strings.TrimSpace(strings.TrimPrefix(c.Tool.Version, "v"))
	if c.Tool.Version == "" {
		c.Tool.Version = DefaultEarthlyVersion
	}
	if !semver.IsValid("v" + c.Tool.Version) {
		return fmt.Errorf("invalid --earthly-version: %q is not a semantic version", c.Tool.Version)
	}

	c.Tool.TrunkBranch = strings.TrimSpace(c.Tool.TrunkBranch)
	if c.Tool.TrunkBranch == "" {
		c.Tool.TrunkBranch = "main"
	}

	buildArgs, err := ParseArgMap(c.Inputs.BuildArgsJSON)
	if err != nil {
		return fmt.Errorf("invalid --build-args value: %w", err)
	}
	c.Inputs.BuildArgs = buildArgs

	secrets, err := ParseArgMap(c.Inputs.SecretsJSON)
	if err != nil {
		return fmt.Errorf("invalid --secrets value: %w", err)
	}
	c.Inputs.Secrets = secrets

	return nil
}
