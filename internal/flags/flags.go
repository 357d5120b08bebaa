package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// the GitHub Actions input fallback. Keeping these as constants avoids drift
// between the Cobra flag wiring and the INPUT_* environment mapping applied
// when the binary runs as a composite-action step.
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Job inputs
	FlagTarget    = "target"
	FlagPush      = "push"
	FlagBuildArgs = "build-args"
	FlagSecrets   = "secrets"

	// Tool
	FlagVersion     = "earthly-version"
	FlagTrunkBranch = "trunk-branch"

	// Runtime
	FlagToken   = "token"
	FlagDryRun  = "dry-run"
	FlagVerbose = "verbose"
)

// InputEnv maps a flag name to the INPUT_* environment variable the GitHub
// runner sets for the action input of the same meaning. Input names follow
// the action manifest (camelCase), uppercased per the runner's convention.
// Flags without a manifest input return "".
func InputEnv(flag string) string {
	switch flag {
	case FlagTarget:
		return "INPUT_TARGET"
	case FlagPush:
		return "INPUT_PUSH"
	case FlagBuildArgs:
		return "INPUT_BUILDARGS"
	case FlagSecrets:
		return "INPUT_SECRETS"
	case FlagVersion:
		return "INPUT_EARTHLYVERSION"
	case FlagTrunkBranch:
		return "INPUT_TRUNKBRANCH"
	default:
		return ""
	}
}
