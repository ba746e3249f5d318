package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormyy00/autopr/internal/forge"
	"github.com/stormyy00/autopr/internal/notify"
)

const cleanReview = "Looks good. The change is well scoped and safe to merge automatically."

func newTestGate(f *forge.Fake, rec *notify.Recorder) *Gate {
	return New(f, rec, Config{Repo: "stormyy00/email-automation"})
}

// seedMergeablePR sets up a PR that passes every predicate.
func seedMergeablePR(f *forge.Fake, number int) *forge.PullRequest {
	pr := &forge.PullRequest{
		Number:    number,
		Title:     "Add feature",
		Author:    "octocat",
		Mergeable: true,
		HeadSHA:   "abc123",
	}
	f.Pulls[number] = pr
	f.Reviews[number] = []forge.Review{{Author: "reviewer", State: "APPROVED"}}
	return pr
}

func TestAutoMerge_MergeConflicts(t *testing.T) {
	f := forge.NewFake()
	pr := seedMergeablePR(f, 42)
	pr.Mergeable = false
	rec := &notify.Recorder{}

	ok, message := newTestGate(f, rec).AutoMerge(t.Context(), 42, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, "merge conflicts")
	assert.Empty(t, f.MergeCalls)
	assert.Contains(t, rec.Last().Title, "Merge Failed")
}

func TestAutoMerge_NoApprovals(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 7)
	f.Reviews[7] = []forge.Review{{Author: "reviewer", State: "CHANGES_REQUESTED"}}
	rec := &notify.Recorder{}

	ok, message := newTestGate(f, rec).AutoMerge(t.Context(), 7, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, "doesn't have required human approvals")
	assert.Empty(t, f.MergeCalls)
	assert.Contains(t, rec.Last().Title, "Merge Blocked")
}

func TestAutoMerge_FailingCommitStatus(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 8)
	f.Status = &forge.CombinedStatus{
		State:    "failure",
		Contexts: []forge.StatusContext{{Context: "ci/build", State: "failure"}},
	}

	ok, message := newTestGate(f, &notify.Recorder{}).AutoMerge(t.Context(), 8, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, `"failure"`)
	assert.Empty(t, f.MergeCalls)
}

func TestAutoMerge_EmptyStatusContextsPass(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 9)
	// GitHub reports "pending" for commits with zero status contexts;
	// that must not block the merge.
	f.Status = &forge.CombinedStatus{State: "pending"}

	ok, _ := newTestGate(f, &notify.Recorder{}).AutoMerge(t.Context(), 9, cleanReview)
	assert.True(t, ok)
}

func TestAutoMerge_FailingWorkflowRun(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 10)
	f.Workflows = []forge.WorkflowRun{
		{Name: "CI", Conclusion: "failure"},
		{Name: "Lint", Conclusion: "success"},
	}

	ok, message := newTestGate(f, &notify.Recorder{}).AutoMerge(t.Context(), 10, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, "failing workflow runs: CI")
	assert.Empty(t, f.MergeCalls)
}

func TestAutoMerge_WorkflowQueryFailureFailsOpen(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 11)
	f.WorkflowsErr = errors.New("api unavailable")

	ok, _ := newTestGate(f, &notify.Recorder{}).AutoMerge(t.Context(), 11, cleanReview)
	assert.True(t, ok, "workflow query failures must not block the merge")
}

func TestAutoMerge_FailingCheckRun(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 12)
	f.Checks = []forge.CheckRun{
		{Name: "unit-tests", Conclusion: "failure"},
		{Name: "docs", Conclusion: "neutral"},
		{Name: "optional", Conclusion: "skipped"},
	}

	ok, message := newTestGate(f, &notify.Recorder{}).AutoMerge(t.Context(), 12, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, "failing checks: unit-tests")
}

func TestAutoMerge_CheckQueryFailureFailsOpen(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 13)
	f.ChecksErr = errors.New("api unavailable")

	ok, _ := newTestGate(f, &notify.Recorder{}).AutoMerge(t.Context(), 13, cleanReview)
	assert.True(t, ok)
}

func TestAutoMerge_ReviewDenylist(t *testing.T) {
	tests := []struct {
		name   string
		review string
		block  bool
	}{
		{"unsafe mixed case", "This change is Unsafe", true},
		{"error", "An error was found in the handler", true},
		{"issue", "One ISSUE remains in the retry path", true},
		{"not recommended", "Merging is Not Recommended", true},
		{"don't merge", "Please don't merge this yet", true},
		{"clean", cleanReview, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := forge.NewFake()
			seedMergeablePR(f, 20)
			rec := &notify.Recorder{}

			ok, message := newTestGate(f, rec).AutoMerge(t.Context(), 20, tt.review)
			if tt.block {
				assert.False(t, ok)
				assert.Contains(t, message, "AI review flagged potential issues")
				assert.Empty(t, f.MergeCalls)
			} else {
				assert.True(t, ok)
			}
		})
	}
}

func TestAutoMerge_Success(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 21)
	rec := &notify.Recorder{}

	ok, message := newTestGate(f, rec).AutoMerge(t.Context(), 21, cleanReview)
	require.True(t, ok)
	assert.Contains(t, message, "was automatically merged")

	require.Len(t, f.MergeCalls, 1)
	call := f.MergeCalls[0]
	assert.Equal(t, 21, call.Number)
	assert.Equal(t, forge.MergeMethodSquash, call.Method)
	assert.Equal(t, "Auto-merge PR #21: Add feature", call.Title)
	assert.Contains(t, call.Message, "AI Review:")
	assert.Contains(t, call.Message, cleanReview)

	assert.Contains(t, rec.Last().Title, "PR Merged")
}

func TestAutoMerge_ProviderRefusal(t *testing.T) {
	f := forge.NewFake()
	seedMergeablePR(f, 22)
	f.MergeResult = &forge.MergeResult{Merged: false, Message: "Base branch was modified"}
	rec := &notify.Recorder{}

	ok, message := newTestGate(f, rec).AutoMerge(t.Context(), 22, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, "Failed to auto-merge PR #22")
	assert.Contains(t, message, "Base branch was modified")
}

func TestAutoMerge_FetchErrorDenies(t *testing.T) {
	f := forge.NewFake()
	f.GetPullErr = errors.New("connection reset")
	rec := &notify.Recorder{}

	ok, message := newTestGate(f, rec).AutoMerge(t.Context(), 23, cleanReview)
	assert.False(t, ok)
	assert.Contains(t, message, "Error during auto-merge of PR #23")
	assert.Contains(t, rec.Last().Title, "Merge Error")
}

func TestAutoMerge_EveryDenialNotifies(t *testing.T) {
	f := forge.NewFake()
	pr := seedMergeablePR(f, 24)
	pr.Mergeable = false
	rec := &notify.Recorder{}

	newTestGate(f, rec).AutoMerge(t.Context(), 24, cleanReview)
	assert.Len(t, rec.Messages, 1)
	assert.Equal(t, notify.ColorAmber, rec.Last().Color)
}
