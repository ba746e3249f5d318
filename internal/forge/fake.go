package forge

import (
	"context"
	"sync"
)

// MergeCall records a call to Fake.Merge.
type MergeCall struct {
	Number  int
	Title   string
	Message string
	Method  string
}

// Fake is a hand-written test double for Client. Zero values behave as
// an empty repository; populate fields per test.
type Fake struct {
	mu sync.Mutex

	Pulls     map[int]*PullRequest
	Files     map[int][]FileChange
	Reviews   map[int][]Review
	Status    *CombinedStatus
	Checks    []CheckRun
	Workflows []WorkflowRun

	MergeResult *MergeResult
	MergeCalls  []MergeCall

	GetPullErr     error
	ListPullsErr   error
	ListFilesErr   error
	ListReviewsErr error
	StatusErr      error
	ChecksErr      error
	WorkflowsErr   error
	MergeErr       error
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Pulls:   make(map[int]*PullRequest),
		Files:   make(map[int][]FileChange),
		Reviews: make(map[int][]Review),
	}
}

func (f *Fake) GetPull(_ context.Context, number int) (*PullRequest, error) {
	if f.GetPullErr != nil {
		return nil, f.GetPullErr
	}
	pr, ok := f.Pulls[number]
	if !ok {
		return nil, ErrNotFound
	}
	return pr, nil
}

func (f *Fake) ListOpenPulls(_ context.Context) ([]*PullRequest, error) {
	if f.ListPullsErr != nil {
		return nil, f.ListPullsErr
	}
	var pulls []*PullRequest
	for _, pr := range f.Pulls {
		pulls = append(pulls, pr)
	}
	return pulls, nil
}

func (f *Fake) ListFiles(_ context.Context, number int) ([]FileChange, error) {
	if f.ListFilesErr != nil {
		return nil, f.ListFilesErr
	}
	return f.Files[number], nil
}

func (f *Fake) ListReviews(_ context.Context, number int) ([]Review, error) {
	if f.ListReviewsErr != nil {
		return nil, f.ListReviewsErr
	}
	return f.Reviews[number], nil
}

func (f *Fake) GetCombinedStatus(_ context.Context, _ string) (*CombinedStatus, error) {
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	if f.Status == nil {
		return &CombinedStatus{State: "success"}, nil
	}
	return f.Status, nil
}

func (f *Fake) ListCheckRuns(_ context.Context, _ string) ([]CheckRun, error) {
	if f.ChecksErr != nil {
		return nil, f.ChecksErr
	}
	return f.Checks, nil
}

func (f *Fake) ListWorkflowRuns(_ context.Context, _ string) ([]WorkflowRun, error) {
	if f.WorkflowsErr != nil {
		return nil, f.WorkflowsErr
	}
	return f.Workflows, nil
}

func (f *Fake) Merge(_ context.Context, number int, title, message, method string) (*MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MergeCalls = append(f.MergeCalls, MergeCall{Number: number, Title: title, Message: message, Method: method})
	if f.MergeErr != nil {
		return nil, f.MergeErr
	}
	if f.MergeResult != nil {
		return f.MergeResult, nil
	}
	return &MergeResult{Merged: true, SHA: "deadbeef"}, nil
}

// Verify Fake implements Client at compile time.
var _ Client = (*Fake)(nil)
