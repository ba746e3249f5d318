// Package github implements forge.Client against the GitHub REST API
// for a single configured owner/repo.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	github_ratelimit "github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	"github.com/stormyy00/autopr/internal/forge"
)

// Client is a forge.Client bound to one repository.
type Client struct {
	client *gh.Client
	owner  string
	repo   string
}

// New creates a GitHub client for the given owner/repo authenticated
// with the given token. Uses go-github-ratelimit middleware for
// automatic rate limit handling.
func New(owner, repo, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	authed := oauth2.NewClient(context.Background(), ts)
	httpClient := github_ratelimit.NewClient(authed.Transport)
	return &Client{
		client: gh.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

// GetPull fetches a single pull request by number.
func (c *Client) GetPull(ctx context.Context, number int) (*forge.PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("PR #%d: %w", number, forge.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching PR #%d: %w", number, err)
	}
	return mapPR(pr), nil
}

// ListOpenPulls lists all open pull requests, paginating as needed.
func (c *Client) ListOpenPulls(ctx context.Context) ([]*forge.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var pulls []*forge.PullRequest
	for {
		page, resp, err := c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing open PRs: %w", err)
		}
		for _, pr := range page {
			pulls = append(pulls, mapPR(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return pulls, nil
}

// ListFiles lists the changed files of a pull request.
func (c *Client) ListFiles(ctx context.Context, number int) ([]forge.FileChange, error) {
	opts := &gh.ListOptions{PerPage: 100}
	var files []forge.FileChange
	for {
		page, resp, err := c.client.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("PR #%d: %w", number, forge.ErrNotFound)
			}
			return nil, fmt.Errorf("listing files for PR #%d: %w", number, err)
		}
		for _, f := range page {
			files = append(files, forge.FileChange{
				Filename: f.GetFilename(),
				Patch:    f.GetPatch(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// ListReviews lists the submitted reviews of a pull request.
func (c *Client) ListReviews(ctx context.Context, number int) ([]forge.Review, error) {
	opts := &gh.ListOptions{PerPage: 100}
	var reviews []forge.Review
	for {
		page, resp, err := c.client.PullRequests.ListReviews(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing reviews for PR #%d: %w", number, err)
		}
		for _, r := range page {
			reviews = append(reviews, forge.Review{
				Author: r.GetUser().GetLogin(),
				State:  r.GetState(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return reviews, nil
}

// GetCombinedStatus fetches the combined commit status for a SHA.
func (c *Client) GetCombinedStatus(ctx context.Context, sha string) (*forge.CombinedStatus, error) {
	combined, _, err := c.client.Repositories.GetCombinedStatus(ctx, c.owner, c.repo, sha, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("fetching combined status for %s: %w", sha, err)
	}
	status := &forge.CombinedStatus{State: combined.GetState()}
	for _, s := range combined.Statuses {
		status.Contexts = append(status.Contexts, forge.StatusContext{
			Context: s.GetContext(),
			State:   s.GetState(),
		})
	}
	return status, nil
}

// ListCheckRuns lists the check runs for a SHA, paginating as needed.
func (c *Client) ListCheckRuns(ctx context.Context, sha string) ([]forge.CheckRun, error) {
	opts := &gh.ListCheckRunsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var checks []forge.CheckRun
	for {
		result, resp, err := c.client.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, sha, opts)
		if err != nil {
			return nil, fmt.Errorf("listing check runs for %s: %w", sha, err)
		}
		for _, cr := range result.CheckRuns {
			checks = append(checks, forge.CheckRun{
				Name:       cr.GetName(),
				Status:     cr.GetStatus(),
				Conclusion: cr.GetConclusion(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return checks, nil
}

// ListWorkflowRuns lists the workflow runs triggered for a SHA.
func (c *Client) ListWorkflowRuns(ctx context.Context, sha string) ([]forge.WorkflowRun, error) {
	opts := &gh.ListWorkflowRunsOptions{
		HeadSHA:     sha,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var runs []forge.WorkflowRun
	for {
		result, resp, err := c.client.Actions.ListRepositoryWorkflowRuns(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing workflow runs for %s: %w", sha, err)
		}
		for _, wr := range result.WorkflowRuns {
			runs = append(runs, forge.WorkflowRun{
				Name:       wr.GetName(),
				Status:     wr.GetStatus(),
				Conclusion: wr.GetConclusion(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return runs, nil
}

// Merge merges a pull request. A provider-reported "not merged"
// outcome is returned in the result, not as an error.
func (c *Client) Merge(ctx context.Context, number int, title, message, method string) (*forge.MergeResult, error) {
	opts := &gh.PullRequestOptions{
		CommitTitle: title,
		MergeMethod: method,
	}
	result, _, err := c.client.PullRequests.Merge(ctx, c.owner, c.repo, number, message, opts)
	if err != nil {
		// GitHub reports an unmergeable PR as 405; surface the
		// provider's message rather than a transport failure.
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusMethodNotAllowed {
			return &forge.MergeResult{Merged: false, Message: ghErr.Message}, nil
		}
		return nil, fmt.Errorf("merging PR #%d: %w", number, err)
	}
	return &forge.MergeResult{
		Merged:  result.GetMerged(),
		SHA:     result.GetSHA(),
		Message: result.GetMessage(),
	}, nil
}

func mapPR(pr *gh.PullRequest) *forge.PullRequest {
	return &forge.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		Author:    pr.GetUser().GetLogin(),
		Mergeable: pr.GetMergeable(),
		HeadSHA:   pr.GetHead().GetSHA(),
		HTMLURL:   pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}
}

func isNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// Verify Client implements forge.Client at compile time.
var _ forge.Client = (*Client)(nil)
