// Package merge implements the auto-merge eligibility gate: an ordered
// sequence of predicates over live repository data, ending in a squash
// merge when every predicate passes.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stormyy00/autopr/internal/forge"
	"github.com/stormyy00/autopr/internal/notify"
)

// denylist contains substrings that block auto-merge when present in
// the AI review, matched case-insensitively.
var denylist = []string{"error", "issue", "unsafe", "not recommended", "don't merge"}

// Config carries the repository identity shown in notifications.
type Config struct {
	Repo string // "org/repo"
}

// Gate evaluates merge eligibility and executes the merge.
type Gate struct {
	forge    forge.Client
	notifier notify.Sender
	cfg      Config
}

// New creates a Gate with explicit dependencies.
func New(fc forge.Client, sender notify.Sender, cfg Config) *Gate {
	return &Gate{forge: fc, notifier: sender, cfg: cfg}
}

// AutoMerge evaluates the eligibility predicates strictly in order and
// merges the PR when all pass. It returns whether the merge happened
// and a human-readable message; the first failing predicate stops the
// evaluation and sends its own notification. Check and workflow query
// failures are logged and fail open; everything else fails closed.
func (g *Gate) AutoMerge(ctx context.Context, number int, reviewText string) (bool, string) {
	pr, err := g.forge.GetPull(ctx, number)
	if err != nil {
		return g.fail(ctx, number, err)
	}

	if !pr.Mergeable {
		message := fmt.Sprintf("PR #%d has merge conflicts and cannot be auto-merged.", number)
		slog.Warn(message)
		g.notifier.Notify(ctx, notify.Message{
			Title:       fmt.Sprintf("⚠️ PR Merge Failed: #%d - %s", number, pr.Title),
			Description: message,
			Color:       notify.ColorAmber,
		})
		return false, message
	}

	reviews, err := g.forge.ListReviews(ctx, number)
	if err != nil {
		return g.fail(ctx, number, err)
	}
	approvals := 0
	for _, r := range reviews {
		if r.State == "APPROVED" {
			approvals++
		}
	}
	if approvals < 1 {
		message := fmt.Sprintf("PR #%d doesn't have required human approvals.", number)
		slog.Warn(message)
		g.deny(ctx, number, pr.Title, message, nil)
		return false, message
	}

	if ok, message := g.checkCommitStatus(ctx, number, pr); !ok {
		return false, message
	}
	if ok, message := g.checkWorkflowRuns(ctx, number, pr); !ok {
		return false, message
	}
	if ok, message := g.checkCheckRuns(ctx, number, pr); !ok {
		return false, message
	}

	if flagged(reviewText) {
		message := fmt.Sprintf("AI review flagged potential issues in PR #%d.", number)
		slog.Warn(message)
		g.deny(ctx, number, pr.Title, message, []notify.Field{
			{Name: "AI Review", Value: excerpt(reviewText, 1000)},
		})
		return false, message
	}

	return g.execute(ctx, number, pr, reviewText)
}

// checkCommitStatus requires the combined commit status to be
// "success". A repository with no status contexts reports "pending",
// which would block every merge, so zero contexts pass.
func (g *Gate) checkCommitStatus(ctx context.Context, number int, pr *forge.PullRequest) (bool, string) {
	status, err := g.forge.GetCombinedStatus(ctx, pr.HeadSHA)
	if err != nil {
		return g.fail(ctx, number, err)
	}
	if len(status.Contexts) == 0 || status.State == "success" {
		return true, ""
	}

	message := fmt.Sprintf("PR #%d commit status is %q, not \"success\".", number, status.State)
	slog.Warn(message)
	g.deny(ctx, number, pr.Title, message, nil)
	return false, message
}

// checkWorkflowRuns denies when any completed workflow run for the
// head commit concluded outside {success, skipped}. A failure to list
// runs is logged and treated as non-blocking.
func (g *Gate) checkWorkflowRuns(ctx context.Context, number int, pr *forge.PullRequest) (bool, string) {
	runs, err := g.forge.ListWorkflowRuns(ctx, pr.HeadSHA)
	if err != nil {
		slog.Warn("could not list workflow runs, continuing", "number", number, "error", err)
		return true, ""
	}

	var failing []string
	for _, run := range runs {
		switch run.Conclusion {
		case "", "success", "skipped":
		default:
			failing = append(failing, run.Name)
		}
	}
	if len(failing) == 0 {
		return true, ""
	}

	message := fmt.Sprintf("PR #%d has failing workflow runs: %s.", number, strings.Join(failing, ", "))
	slog.Warn(message)
	g.deny(ctx, number, pr.Title, message, nil)
	return false, message
}

// checkCheckRuns denies when any check run concluded outside
// {success, skipped, neutral}. A failure to list checks is logged and
// treated as non-blocking.
func (g *Gate) checkCheckRuns(ctx context.Context, number int, pr *forge.PullRequest) (bool, string) {
	checks, err := g.forge.ListCheckRuns(ctx, pr.HeadSHA)
	if err != nil {
		slog.Warn("could not list check runs, continuing", "number", number, "error", err)
		return true, ""
	}

	var failing []string
	for _, check := range checks {
		switch check.Conclusion {
		case "", "success", "skipped", "neutral":
		default:
			failing = append(failing, check.Name)
		}
	}
	if len(failing) == 0 {
		return true, ""
	}

	message := fmt.Sprintf("PR #%d has failing checks: %s.", number, strings.Join(failing, ", "))
	slog.Warn(message)
	g.deny(ctx, number, pr.Title, message, nil)
	return false, message
}

// execute performs the squash merge.
func (g *Gate) execute(ctx context.Context, number int, pr *forge.PullRequest, reviewText string) (bool, string) {
	title := fmt.Sprintf("Auto-merge PR #%d: %s", number, pr.Title)
	message := fmt.Sprintf("Automatically merged via PR automation tool.\n\nAI Review:\n%s", reviewText)

	result, err := g.forge.Merge(ctx, number, title, message, forge.MergeMethodSquash)
	if err != nil {
		return g.fail(ctx, number, err)
	}

	if !result.Merged {
		failure := fmt.Sprintf("Failed to auto-merge PR #%d: %s", number, result.Message)
		slog.Warn(failure)
		g.notifier.Notify(ctx, notify.Message{
			Title:       fmt.Sprintf("❌ PR Merge Failed: #%d - %s", number, pr.Title),
			Description: failure,
			Color:       notify.ColorRed,
		})
		return false, failure
	}

	success := fmt.Sprintf("PR #%d was automatically merged.", number)
	slog.Info(success)
	g.notifier.Notify(ctx, notify.Message{
		Title:       fmt.Sprintf("✅ PR Merged: #%d - %s", number, pr.Title),
		Description: "PR was automatically merged based on AI review",
		Color:       notify.ColorGreen,
		Fields: []notify.Field{
			{Name: "Repository", Value: g.cfg.Repo, Inline: true},
			{Name: "Author", Value: pr.Author, Inline: true},
			{Name: "AI Review", Value: excerpt(reviewText, 2000)},
		},
	})
	return true, success
}

// deny sends the standard amber "merge blocked" notification.
func (g *Gate) deny(ctx context.Context, number int, title, message string, fields []notify.Field) {
	g.notifier.Notify(ctx, notify.Message{
		Title:       fmt.Sprintf("⚠️ PR Merge Blocked: #%d - %s", number, title),
		Description: message,
		Color:       notify.ColorAmber,
		Fields:      fields,
	})
}

// fail converts an unexpected error into a deny with a red
// notification.
func (g *Gate) fail(ctx context.Context, number int, err error) (bool, string) {
	message := fmt.Sprintf("Error during auto-merge of PR #%d: %v", number, err)
	slog.Error(message)
	g.notifier.Notify(ctx, notify.Message{
		Title:       fmt.Sprintf("❌ PR Merge Error: #%d", number),
		Description: message,
		Color:       notify.ColorRed,
	})
	return false, message
}

// flagged reports whether the review text contains a denylisted term.
func flagged(reviewText string) bool {
	lower := strings.ToLower(reviewText)
	for _, term := range denylist {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
