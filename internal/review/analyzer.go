// Package review generates AI reviews of pull requests: it assembles a
// bounded-size prompt from PR metadata and diff content, submits it to
// the model service and returns the review text.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stormyy00/autopr/internal/forge"
	"github.com/stormyy00/autopr/internal/llm"
	"github.com/stormyy00/autopr/internal/notify"
)

// NoChangesMessage is returned verbatim for PRs with zero changed
// files; the model service is not called in that case.
const NoChangesMessage = "No file changes detected in this PR."

const (
	binaryPlaceholder = "Binary file or no patch available"
	patchMarker       = "... [truncated]"
	diffMarker        = "\n\n... [additional changes truncated due to size]"
)

// Config bounds prompt assembly and the model call.
type Config struct {
	Repo          string // "org/repo", shown in notifications
	MaxPatchChars int    // per-file patch cap
	MaxDiffChars  int    // overall diff buffer cap
	Timeout       time.Duration
}

// Analyzer produces review text for pull requests.
type Analyzer struct {
	forge    forge.Client
	llm      llm.Client
	notifier notify.Sender
	cfg      Config
}

// New creates an Analyzer with explicit dependencies.
func New(fc forge.Client, lc llm.Client, sender notify.Sender, cfg Config) *Analyzer {
	if cfg.MaxPatchChars <= 0 {
		cfg.MaxPatchChars = 2000
	}
	if cfg.MaxDiffChars <= 0 {
		cfg.MaxDiffChars = 15000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Analyzer{forge: fc, llm: lc, notifier: sender, cfg: cfg}
}

// Analyze fetches the PR and its diff, asks the model for a review and
// returns the review text. Model failures are soft: they come back as
// review text beginning with "Error", never as an error return, so the
// caller always has something to show. The error return is reserved
// for repository access failures (including forge.ErrNotFound).
func (a *Analyzer) Analyze(ctx context.Context, number int) (string, error) {
	pr, err := a.forge.GetPull(ctx, number)
	if err != nil {
		return "", err
	}
	slog.Info("fetched PR for review", "number", number, "title", pr.Title)

	files, err := a.forge.ListFiles(ctx, number)
	if err != nil {
		return "", err
	}
	slog.Debug("changed files", "number", number, "count", len(files))

	if len(files) == 0 {
		slog.Warn("PR has no file changes", "number", number)
		return NoChangesMessage, nil
	}

	diff := a.buildDiff(files)
	prompt := buildPrompt(pr, diff)

	slog.Info("sending prompt to model", "number", number, "diffChars", len(diff))

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	completion, err := a.llm.Complete(callCtx, prompt)
	if err != nil {
		slog.Error("model completion failed", "number", number, "error", err)
		return fmt.Sprintf("Error generating review: %v", err), nil
	}
	if completion.Empty() {
		slog.Error("model returned empty content", "number", number)
		return "Error: model returned empty content", nil
	}

	reviewText := completion.Content
	slog.Info("generated review", "number", number, "chars", len(reviewText))

	a.notifier.Notify(ctx, notify.Message{
		Title:       fmt.Sprintf("🔍 PR Review: #%d - %s", number, pr.Title),
		Description: fmt.Sprintf("AI review generated for PR #%d", number),
		Color:       notify.ColorBlue,
		Fields: []notify.Field{
			{Name: "Repository", Value: a.cfg.Repo, Inline: true},
			{Name: "Author", Value: pr.Author, Inline: true},
			{Name: "Review", Value: excerpt(reviewText, 1000)},
		},
	})

	return reviewText, nil
}

// buildDiff assembles the diff buffer, capping each patch and the
// overall buffer so oversized PRs cannot blow the prompt budget.
func (a *Analyzer) buildDiff(files []forge.FileChange) string {
	var b strings.Builder
	for _, f := range files {
		patch := f.Patch
		if patch == "" {
			patch = binaryPlaceholder
		}
		if len(patch) > a.cfg.MaxPatchChars {
			patch = patch[:a.cfg.MaxPatchChars] + patchMarker
		}
		fmt.Fprintf(&b, "File: %s\nChanges: %s\n\n", f.Filename, patch)
	}

	diff := b.String()
	if len(diff) > a.cfg.MaxDiffChars {
		diff = diff[:a.cfg.MaxDiffChars] + diffMarker
	}
	return diff
}

func buildPrompt(pr *forge.PullRequest, diff string) string {
	description := pr.Body
	if description == "" {
		description = "No description provided"
	}

	return fmt.Sprintf(`You are an AI code reviewer analyzing GitHub pull requests.
1. Identify significant logic changes.
2. Summarize changes concisely in 100 words or less.
3. Provide constructive feedback and highlight potential improvements.
4. Assess if this PR is safe to merge automatically.

PR Title: %s
PR Description: %s

File Changes:
%s`, pr.Title, description, diff)
}

// excerpt shortens s for display in a notification field.
func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
