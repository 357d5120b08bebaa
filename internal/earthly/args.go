// Package earthly builds argument lists for and executes the earthly binary.
package earthly

import (
	"earthci/internal/buildctx"
	"earthci/internal/config"
)

// Binary is the executable name the runner resolves on PATH.
const Binary = "earthly"

// RegistryBuildArg is the build-arg key seeded with the OCI registry value
// before job-supplied build args are merged in.
const RegistryBuildArg = "OCI_REGISTRY"

// Arguments produces the full earthly argument list for one run. Pure: the
// same context and config always yield the same slice.
//
// Layout: baseline flags, cache flags, optional --push, build args, secrets,
// and the build target last.
func Arguments(bc *buildctx.Context, cfg *config.Config) []string {
	args := []string{"--strict", "--allow-privileged"}

	cacheImage := bc.CacheOCIRegistry + "/" + bc.Repository
	if bc.PullRequestID != "" {
		// PR builds write their own topic cache and read the trunk cache as
		// a shared baseline, so concurrent PRs never pollute each other.
		args = append(args,
			"--remote-cache="+cacheImage+":pr-"+bc.PullRequestID,
			"--cache-from="+cacheImage+":"+cfg.Tool.TrunkBranch,
		)
	} else {
		args = append(args, "--remote-cache="+cacheImage+":"+bc.Branch)
	}

	if cfg.Inputs.Push {
		args = append(args, "--push")
	}

	// Seed the registry build arg first, then merge the job input over it.
	// A colliding job key overrides the value but keeps the seeded position.
	// Keys and values are interpolated without escaping; earthly receives
	// them verbatim (known limitation).
	buildArgs := config.NewArgMap()
	buildArgs.Set(RegistryBuildArg, bc.OCIRegistry)
	for _, k := range cfg.Inputs.BuildArgs.Keys() {
		v, _ := cfg.Inputs.BuildArgs.Get(k)
		buildArgs.Set(k, v)
	}
	for _, k := range buildArgs.Keys() {
		v, _ := buildArgs.Get(k)
		args = append(args, "--build-arg="+k+"="+v)
	}

	for _, k := range cfg.Inputs.Secrets.Keys() {
		v, _ := cfg.Inputs.Secrets.Get(k)
		args = append(args, "--secret="+k+"="+v)
	}

	return append(args, cfg.Inputs.Target)
}
