// Package forge defines the provider-neutral interface to the source
// hosting service. The service holds no PR state of its own: every
// entity here is fetched live per request and discarded afterwards.
package forge

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested pull request does not exist.
var ErrNotFound = errors.New("pull request not found")

// PullRequest carries the subset of PR metadata the service consumes.
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	Author    string
	Mergeable bool
	HeadSHA   string
	HTMLURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileChange is one changed file in a PR. Patch is empty for binary
// files or oversized diffs where the provider omits the fragment.
type FileChange struct {
	Filename string
	Patch    string
}

// Review is a submitted PR review. State is the provider's value,
// e.g. "APPROVED" or "CHANGES_REQUESTED".
type Review struct {
	Author string
	State  string
}

// StatusContext is one entry in a combined commit status.
type StatusContext struct {
	Context string
	State   string
}

// CombinedStatus is the provider's rollup of legacy commit statuses
// for a single commit.
type CombinedStatus struct {
	State    string
	Contexts []StatusContext
}

// CheckRun is a CI check result for a commit. Conclusion is empty
// while the run is still in progress.
type CheckRun struct {
	Name       string
	Status     string
	Conclusion string
}

// WorkflowRun is a CI workflow execution for a commit.
type WorkflowRun struct {
	Name       string
	Status     string
	Conclusion string
}

// MergeResult reports the outcome of a merge attempt.
type MergeResult struct {
	Merged  bool
	SHA     string
	Message string
}

// Merge methods accepted by Client.Merge.
const (
	MergeMethodSquash = "squash"
	MergeMethodMerge  = "merge"
	MergeMethodRebase = "rebase"
)

// Client abstracts the source hosting API for a single configured
// repository. Implementations wrap ErrNotFound for unknown PR numbers;
// any other error indicates a connectivity or provider failure.
type Client interface {
	// GetPull fetches a single pull request by number.
	GetPull(ctx context.Context, number int) (*PullRequest, error)

	// ListOpenPulls lists all open pull requests.
	ListOpenPulls(ctx context.Context) ([]*PullRequest, error)

	// ListFiles lists the changed files of a pull request.
	ListFiles(ctx context.Context, number int) ([]FileChange, error)

	// ListReviews lists the submitted reviews of a pull request.
	ListReviews(ctx context.Context, number int) ([]Review, error)

	// GetCombinedStatus fetches the combined commit status for a SHA.
	GetCombinedStatus(ctx context.Context, sha string) (*CombinedStatus, error)

	// ListCheckRuns lists the check runs for a SHA.
	ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error)

	// ListWorkflowRuns lists the workflow runs triggered for a SHA.
	ListWorkflowRuns(ctx context.Context, sha string) ([]WorkflowRun, error)

	// Merge merges a pull request with the given commit title, message
	// and merge method.
	Merge(ctx context.Context, number int, title, message, method string) (*MergeResult, error)
}
