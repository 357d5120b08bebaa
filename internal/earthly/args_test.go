package earthly

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"earthci/internal/buildctx"
	"earthci/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Inputs.Target = "+build"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	return cfg
}

func branchContext() *buildctx.Context {
	return &buildctx.Context{
		Repository:       "org/repo",
		Branch:           "main",
		OCIRegistry:      "reg.example.com",
		CacheOCIRegistry: "reg.example.com",
	}
}

func countPrefix(args []string, prefix string) int {
	n := 0
	for _, a := range args {
		if strings.HasPrefix(a, prefix) {
			n++
		}
	}
	return n
}

func TestArguments_BaselineFlagsFirst(t *testing.T) {
	args := Arguments(branchContext(), testConfig(t))

	if args[0] != "--strict" || args[1] != "--allow-privileged" {
		t.Fatalf("baseline flags missing or misplaced: %v", args[:2])
	}
	// Baseline flags precede every cache flag.
	for i, a := range args {
		if strings.HasPrefix(a, "--remote-cache=") || strings.HasPrefix(a, "--cache-from=") {
			if i < 2 {
				t.Fatalf("cache flag before baseline flags: %v", args)
			}
		}
	}
}

func TestArguments_BranchCaching(t *testing.T) {
	args := Arguments(branchContext(), testConfig(t))

	if !slices.Contains(args, "--remote-cache=reg.example.com/org/repo:main") {
		t.Fatalf("missing branch remote-cache flag: %v", args)
	}
	if countPrefix(args, "--remote-cache=") != 1 {
		t.Fatalf("expected exactly one remote-cache flag: %v", args)
	}
	if countPrefix(args, "--cache-from=") != 0 {
		t.Fatalf("branch builds must not emit cache-from: %v", args)
	}
}

func TestArguments_PullRequestCaching(t *testing.T) {
	bc := branchContext()
	bc.Branch = "feature-x"
	bc.PullRequestID = "42"

	args := Arguments(bc, testConfig(t))

	if !slices.Contains(args, "--remote-cache=reg.example.com/org/repo:pr-42") {
		t.Fatalf("missing PR remote-cache flag: %v", args)
	}
	if !slices.Contains(args, "--cache-from=reg.example.com/org/repo:main") {
		t.Fatalf("missing trunk cache-from flag: %v", args)
	}
}

func TestArguments_TrunkBranchConfigurable(t *testing.T) {
	bc := branchContext()
	bc.PullRequestID = "7"

	cfg := testConfig(t)
	cfg.Tool.TrunkBranch = "master"

	args := Arguments(bc, cfg)
	if !slices.Contains(args, "--cache-from=reg.example.com/org/repo:master") {
		t.Fatalf("cache-from does not honor trunk branch: %v", args)
	}
}

func TestArguments_PushFlag(t *testing.T) {
	cfg := testConfig(t)
	args := Arguments(branchContext(), cfg)
	if slices.Contains(args, "--push") {
		t.Fatalf("--push emitted without push input: %v", args)
	}

	cfg.Inputs.Push = true
	args = Arguments(branchContext(), cfg)
	if n := countPrefix(args, "--push"); n != 1 {
		t.Fatalf("expected exactly one --push, got %d: %v", n, args)
	}
}

func TestArguments_BuildArgsSeededAndMerged(t *testing.T) {
	cfg := config.New()
	cfg.Inputs.Target = "+build"
	cfg.Inputs.BuildArgsJSON = `{"A":"1"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	bc := branchContext()
	bc.OCIRegistry = "r"

	args := Arguments(bc, cfg)
	var got []string
	for _, a := range args {
		if strings.HasPrefix(a, "--build-arg=") {
			got = append(got, a)
		}
	}
	want := []string{"--build-arg=OCI_REGISTRY=r", "--build-arg=A=1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("build-arg flags mismatch: got %v want %v", got, want)
	}
}

func TestArguments_JobBuildArgOverridesDefault(t *testing.T) {
	cfg := config.New()
	cfg.Inputs.Target = "+build"
	cfg.Inputs.BuildArgsJSON = `{"OCI_REGISTRY":"other.example.com"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	args := Arguments(branchContext(), cfg)
	if !slices.Contains(args, "--build-arg=OCI_REGISTRY=other.example.com") {
		t.Fatalf("job key did not override the seeded default: %v", args)
	}
	if countPrefix(args, "--build-arg=OCI_REGISTRY=") != 1 {
		t.Fatalf("expected a single OCI_REGISTRY build arg: %v", args)
	}
}

func TestArguments_Secrets(t *testing.T) {
	cfg := config.New()
	cfg.Inputs.Target = "+build"
	cfg.Inputs.SecretsJSON = `{"S":"v"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	args := Arguments(branchContext(), cfg)
	if !slices.Contains(args, "--secret=S=v") {
		t.Fatalf("missing secret flag: %v", args)
	}
}

func TestArguments_TargetIsLast(t *testing.T) {
	cfg := config.New()
	cfg.Inputs.Target = "+release"
	cfg.Inputs.Push = true
	cfg.Inputs.BuildArgsJSON = `{"A":"1"}`
	cfg.Inputs.SecretsJSON = `{"S":"v"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	args := Arguments(branchContext(), cfg)
	if args[len(args)-1] != "+release" {
		t.Fatalf("target is not the last argument: %v", args)
	}
}

func TestArguments_IsPure(t *testing.T) {
	cfg := config.New()
	cfg.Inputs.Target = "+build"
	cfg.Inputs.BuildArgsJSON = `{"A":"1"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	bc := branchContext()

	first := Arguments(bc, cfg)
	second := Arguments(bc, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls disagree: %v vs %v", first, second)
	}
	// The job's parsed input must not absorb the seeded default.
	if _, ok := cfg.Inputs.BuildArgs.Get(RegistryBuildArg); ok {
		t.Fatalf("argument construction mutated the parsed input")
	}
}
