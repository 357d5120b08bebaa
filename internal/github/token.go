// Package github resolves GitHub credentials for authenticated release
// downloads. A token is optional: anonymous downloads work, they just share
// the unauthenticated rate limit across every job on the runner host.
package github

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

type TokenSource string

const (
	TokenSourceExplicit TokenSource = "explicit"
	TokenSourceEnv      TokenSource = "env:GITHUB_TOKEN"
	TokenSourceGHCLI    TokenSource = "gh"
)

// ResolveToken resolves a GitHub access token.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var (set automatically for workflow jobs)
//  3. GitHub CLI: `gh auth token -h github.com` (local runs)
//
// An empty token with a nil error means "download anonymously".
// It never prints the token.
func ResolveToken(ctx context.Context, provided string) (string, TokenSource, error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, TokenSourceExplicit, nil
	}
	if tok := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); tok != "" {
		return tok, TokenSourceEnv, nil
	}

	if _, err := exec.LookPath("gh"); err != nil {
		return "", "", nil
	}

	// Keep this bounded so a broken gh credential helper doesn't hang the
	// job before the build even starts.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	out, err := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com").Output()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", "", cmdCtx.Err()
		}
		// gh present but not logged in (or otherwise failing) means "no
		// token"; the raw gh output is never surfaced.
		return "", "", nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" || strings.ContainsAny(tok, " \t\n\r") {
		return "", "", nil
	}
	return tok, TokenSourceGHCLI, nil
}
