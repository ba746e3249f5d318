package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormyy00/autopr/internal/notify"
)

const prOpenedBody = `{
	"action": "opened",
	"pull_request": {
		"number": 3,
		"title": "Add feature",
		"html_url": "https://github.com/stormyy00/email-automation/pull/3",
		"user": {"login": "octocat"}
	}
}`

func (e *testEnv) postWebhook(t *testing.T, eventType, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	e.server.registerRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if eventType != "" {
		req.Header.Set("X-GitHub-Event", eventType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_MissingEventHeader(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postWebhook(t, "", prOpenedBody, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Not a GitHub webhook event", resp["error"])
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postWebhook(t, "issue_comment", `{"action":"created"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ignored", resp.Status)
	assert.Contains(t, resp.Message, "issue_comment")
	assert.Equal(t, 0, e.llm.Calls(), "ignored events must not trigger analysis")
}

func TestWebhook_MissingPRNumber(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postWebhook(t, "pull_request", `{"action":"opened","pull_request":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Missing PR number", resp["error"])
}

func TestWebhook_OpenedTriggersReviewAndMerge(t *testing.T) {
	e := newTestEnv(t)
	seedPR(e, 3)

	rec := e.postWebhook(t, "pull_request", prOpenedBody, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	assert.Contains(t, resp.Message, "Processed opened event for PR #3")
	assert.NotEmpty(t, resp.Review)
	assert.True(t, resp.MergeAttempted)
	assert.True(t, resp.MergeSuccess)

	assert.Equal(t, 1, e.llm.Calls())
	require.Len(t, e.forge.MergeCalls, 1)

	// First notification announces the new PR.
	require.NotEmpty(t, e.notifier.Messages)
	first := e.notifier.Messages[0]
	assert.Contains(t, first.Title, "New PR: #3")
	assert.Equal(t, notify.ColorBlurple, first.Color)
}

func TestWebhook_AutoMergeDisabledOnlyReviews(t *testing.T) {
	e := newTestEnv(t)
	seedPR(e, 3)
	disabled := false
	e.cfg.Webhook.AutoMerge = &disabled

	rec := e.postWebhook(t, "pull_request", prOpenedBody, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	assert.False(t, resp.MergeAttempted)
	assert.Empty(t, e.forge.MergeCalls)
	assert.Equal(t, 1, e.llm.Calls())
}

func TestWebhook_IgnoresUnrelatedActions(t *testing.T) {
	e := newTestEnv(t)
	seedPR(e, 3)

	body := strings.Replace(prOpenedBody, `"opened"`, `"labeled"`, 1)
	rec := e.postWebhook(t, "pull_request", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ignored", resp.Status)
	assert.Equal(t, 0, e.llm.Calls())
}

func TestWebhook_SignatureRequired(t *testing.T) {
	e := newTestEnv(t)
	seedPR(e, 3)
	e.cfg.GitHub.WebhookSecret = "s3cret"

	// No signature header.
	rec := e.postWebhook(t, "pull_request", prOpenedBody, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong signature.
	rec = e.postWebhook(t, "pull_request", prOpenedBody, map[string]string{
		"X-Hub-Signature-256": "sha256=deadbeef",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, e.llm.Calls())
}

func TestWebhook_ValidSignatureAccepted(t *testing.T) {
	e := newTestEnv(t)
	seedPR(e, 3)
	e.cfg.GitHub.WebhookSecret = "s3cret"

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte(prOpenedBody))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	rec := e.postWebhook(t, "pull_request", prOpenedBody, map[string]string{
		"X-Hub-Signature-256": sig,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
}
