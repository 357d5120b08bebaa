package cli

import (
	"testing"

	"earthci/internal/config"
	"earthci/internal/flags"

	"github.com/spf13/cobra"
)

func clearActionInputs(t *testing.T) {
	t.Helper()
	for _, f := range []string{flags.FlagTarget, flags.FlagPush, flags.FlagBuildArgs, flags.FlagSecrets, flags.FlagVersion, flags.FlagTrunkBranch} {
		t.Setenv(flags.InputEnv(f), "")
	}
}

func TestApplyActionInputs_FillsUnsetFlags(t *testing.T) {
	clearActionInputs(t)
	t.Setenv("INPUT_TARGET", "+release")
	t.Setenv("INPUT_PUSH", "true")
	t.Setenv("INPUT_BUILDARGS", `{"A":"1"}`)
	t.Setenv("INPUT_SECRETS", `{"S":"v"}`)
	t.Setenv("INPUT_EARTHLYVERSION", "0.8.14")
	t.Setenv("INPUT_TRUNKBRANCH", "master")

	c := config.New()
	applyActionInputs(nil, c)

	if c.Inputs.Target != "+release" {
		t.Fatalf("Target = %q", c.Inputs.Target)
	}
	if !c.Inputs.Push {
		t.Fatalf("Push not applied")
	}
	if c.Inputs.BuildArgsJSON != `{"A":"1"}` || c.Inputs.SecretsJSON != `{"S":"v"}` {
		t.Fatalf("JSON inputs not applied: %q %q", c.Inputs.BuildArgsJSON, c.Inputs.SecretsJSON)
	}
	if c.Tool.Version != "0.8.14" || c.Tool.TrunkBranch != "master" {
		t.Fatalf("tool inputs not applied: %+v", c.Tool)
	}
}

func TestApplyActionInputs_ExplicitFlagWins(t *testing.T) {
	clearActionInputs(t)
	t.Setenv("INPUT_TARGET", "+from-input")

	cmd := &cobra.Command{}
	var target string
	cmd.Flags().StringVar(&target, flags.FlagTarget, "", "")
	if err := cmd.Flags().Set(flags.FlagTarget, "+from-flag"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}

	c := config.New()
	c.Inputs.Target = "+from-flag"
	applyActionInputs(cmd, c)

	if c.Inputs.Target != "+from-flag" {
		t.Fatalf("input fallback overrode an explicit flag: %q", c.Inputs.Target)
	}
}

func TestApplyActionInputs_UnparsablePushIsFalse(t *testing.T) {
	clearActionInputs(t)
	t.Setenv("INPUT_PUSH", "yes please")

	c := config.New()
	applyActionInputs(nil, c)

	if c.Inputs.Push {
		t.Fatalf("unparsable push input treated as true")
	}
}

func TestVerboseFlagRegisteredUnderCanonicalName(t *testing.T) {
	if f := rootCmd.PersistentFlags().Lookup(flags.FlagVerbose); f == nil {
		t.Fatalf("persistent flag %q is not registered", flags.FlagVerbose)
	}
}

func TestBuildInfo(t *testing.T) {
	SetBuildInfo("1.2.3", "abc", "2026-01-01")
	version, commit, date := BuildInfo()
	if version != "1.2.3" || commit != "abc" || date != "2026-01-01" {
		t.Fatalf("BuildInfo = %q %q %q", version, commit, date)
	}
}
