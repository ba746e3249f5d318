package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/stormyy00/autopr/internal/forge"
)

// PRSummary is one entry in the GET /api/pull-requests response.
type PRSummary struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	User      string `json:"user"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Mergeable bool   `json:"mergeable"`
}

// ReviewResponse is the GET /api/review-pr/{number} response.
type ReviewResponse struct {
	PRNumber int    `json:"pr_number"`
	Review   string `json:"review"`
}

// MergeResponse is the POST /api/merge-pr/{number} response.
type MergeResponse struct {
	PRNumber int    `json:"pr_number"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Review   string `json:"review"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListPRs(w http.ResponseWriter, r *http.Request) {
	pulls, err := s.forge.ListOpenPulls(r.Context())
	if err != nil {
		slog.Error("fetching open PRs", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("retrieved open PRs", "count", len(pulls))

	summaries := make([]PRSummary, 0, len(pulls))
	for _, pr := range pulls {
		summaries = append(summaries, PRSummary{
			Number:    pr.Number,
			Title:     pr.Title,
			User:      pr.Author,
			CreatedAt: pr.CreatedAt.Format(time.RFC3339),
			UpdatedAt: pr.UpdatedAt.Format(time.RFC3339),
			Mergeable: pr.Mergeable,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleReviewPR(w http.ResponseWriter, r *http.Request) {
	number, ok := prNumber(w, r)
	if !ok {
		return
	}

	reviewText, err := s.analyzer.Analyze(r.Context(), number)
	if err != nil {
		writeAnalyzeError(w, number, err)
		return
	}

	writeJSON(w, http.StatusOK, ReviewResponse{PRNumber: number, Review: reviewText})
}

func (s *Server) handleMergePR(w http.ResponseWriter, r *http.Request) {
	number, ok := prNumber(w, r)
	if !ok {
		return
	}

	reviewText, err := s.analyzer.Analyze(r.Context(), number)
	if err != nil {
		writeAnalyzeError(w, number, err)
		return
	}

	success, message := s.gate.AutoMerge(r.Context(), number, reviewText)

	writeJSON(w, http.StatusOK, MergeResponse{
		PRNumber: number,
		Success:  success,
		Message:  message,
		Review:   reviewText,
	})
}

// prNumber parses the {number} path value, writing a 400 on failure.
func prNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "invalid PR number")
		return 0, false
	}
	return number, true
}

func writeAnalyzeError(w http.ResponseWriter, number int, err error) {
	slog.Error("analyzing PR", "number", number, "error", err)
	if errors.Is(err, forge.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
