// Package buildctx resolves the CI identity of the current run: repository,
// branch, registries, and (for pull_request events) the PR number. The
// resolved Context is built once at startup from the runner environment and
// the workflow event payload, and is read-only afterwards.
package buildctx

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/go-github/v81/github"
)

// Environment variables consumed. GITHUB_* come from the Actions runner;
// the registry variables come from the workflow configuration.
const (
	envRepository       = "GITHUB_REPOSITORY"
	envRefName          = "GITHUB_REF_NAME"
	envEventPath        = "GITHUB_EVENT_PATH"
	envOCIRegistry      = "OCI_REGISTRY"
	envCacheOCIRegistry = "CACHE_OCI_REGISTRY"
)

// Context is the resolved identity for one run. Immutable once constructed.
type Context struct {
	// Repository is the OWNER/NAME identity of the source repository.
	Repository string

	// Branch is the ref name the job runs on. It is used verbatim as an
	// image tag component; no sanitization is applied, so refs containing
	// characters invalid in tags produce broken cache references. Known
	// limitation, preserved from the original behavior.
	Branch string

	// OCIRegistry is injected as the default OCI_REGISTRY build arg. May be
	// empty when the workflow does not set it.
	OCIRegistry string

	// CacheOCIRegistry is the registry hosting the remote cache images.
	CacheOCIRegistry string

	// PullRequestID is the PR number as a string, set iff the event payload
	// contains a pull_request object. Its presence switches the cache flags
	// from branch-based to PR-based.
	PullRequestID string
}

// Resolve constructs a Context from the process environment and the event
// payload file. Registry and repository values are passed through as-is;
// only the event path is validated for presence, because without the payload
// the PR-versus-branch caching decision cannot be made.
func Resolve() (*Context, error) {
	eventPath, ok := os.LookupEnv(envEventPath)
	if !ok || eventPath == "" {
		return nil, fmt.Errorf("%s is not set; not running under a workflow event?", envEventPath)
	}

	prID, err := pullRequestID(eventPath)
	if err != nil {
		return nil, err
	}

	return &Context{
		Repository:       os.Getenv(envRepository),
		Branch:           os.Getenv(envRefName),
		OCIRegistry:      os.Getenv(envOCIRegistry),
		CacheOCIRegistry: os.Getenv(envCacheOCIRegistry),
		PullRequestID:    prID,
	}, nil
}

// pullRequestID reads the event payload and returns the pull request number
// as a string, or "" when the payload has no pull_request object (push,
// schedule, and workflow_dispatch events).
func pullRequestID(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading event payload: %w", err)
	}

	var event github.PullRequestEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return "", fmt.Errorf("parsing event payload %s: %w", path, err)
	}
	if event.PullRequest == nil {
		return "", nil
	}
	return strconv.Itoa(event.PullRequest.GetNumber()), nil
}
