package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/stormyy00/autopr/internal/notify"
)

// maxWebhookBody caps inbound webhook payloads at 5 MB.
const maxWebhookBody = 5 << 20

// WebhookResponse is the POST /api/webhook response for processed
// pull_request events. Merge fields are present only when the
// auto-merge policy is enabled.
type WebhookResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	Review         string `json:"review,omitempty"`
	MergeAttempted bool   `json:"merge_attempted,omitempty"`
	MergeSuccess   bool   `json:"merge_success,omitempty"`
	MergeMessage   string `json:"merge_message,omitempty"`
}

// handleWebhook dispatches inbound GitHub events. Only pull_request
// events with an actionable action trigger analysis; everything else
// is acknowledged and ignored.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	eventType := gh.WebHookType(r)
	if eventType == "" {
		writeError(w, http.StatusBadRequest, "Not a GitHub webhook event")
		return
	}

	payload, err := s.readPayload(r)
	if err != nil {
		if errors.Is(err, errBadSignature) {
			writeError(w, http.StatusUnauthorized, "invalid webhook signature")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if eventType != "pull_request" {
		writeJSON(w, http.StatusOK, WebhookResponse{
			Status:  "ignored",
			Message: fmt.Sprintf("Event %s ignored", eventType),
		})
		return
	}

	raw, err := gh.ParseWebHook(eventType, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	event, ok := raw.(*gh.PullRequestEvent)
	if !ok || event.GetPullRequest().GetNumber() == 0 {
		writeError(w, http.StatusBadRequest, "Missing PR number")
		return
	}

	action := event.GetAction()
	number := event.GetPullRequest().GetNumber()

	switch action {
	case "opened", "reopened", "ready_for_review", "synchronize":
	default:
		writeJSON(w, http.StatusOK, WebhookResponse{
			Status:  "ignored",
			Message: fmt.Sprintf("Event %s ignored", eventType),
		})
		return
	}

	slog.Info("processing pull_request event", "action", action, "number", number)

	s.notifier.Notify(r.Context(), notify.Message{
		Title:       fmt.Sprintf("🔄 New PR: #%d - %s", number, event.GetPullRequest().GetTitle()),
		Description: "A new pull request is ready for review",
		Color:       notify.ColorBlurple,
		Fields: []notify.Field{
			{Name: "Repository", Value: s.cfg.GitHub.FullRepo(), Inline: true},
			{Name: "Author", Value: event.GetPullRequest().GetUser().GetLogin(), Inline: true},
			{Name: "Link", Value: event.GetPullRequest().GetHTMLURL()},
		},
	})

	reviewText, err := s.analyzer.Analyze(r.Context(), number)
	if err != nil {
		writeAnalyzeError(w, number, err)
		return
	}

	resp := WebhookResponse{
		Status:  "success",
		Message: fmt.Sprintf("Processed %s event for PR #%d", action, number),
		Review:  reviewText,
	}

	if s.cfg.Webhook.IsAutoMergeEnabled() {
		success, message := s.gate.AutoMerge(r.Context(), number, reviewText)
		resp.MergeAttempted = true
		resp.MergeSuccess = success
		resp.MergeMessage = message
	}

	writeJSON(w, http.StatusOK, resp)
}

var errBadSignature = errors.New("webhook signature mismatch")

// readPayload reads (and, when a webhook secret is configured,
// verifies) the request body. Without a secret the payload is accepted
// unverified.
func (s *Server) readPayload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxWebhookBody)

	secret := s.cfg.GitHub.WebhookSecret
	if secret == "" {
		return io.ReadAll(r.Body)
	}

	payload, err := gh.ValidatePayload(r, []byte(secret))
	if err != nil {
		slog.Warn("webhook signature validation failed", "error", err)
		return nil, errBadSignature
	}
	return payload, nil
}
