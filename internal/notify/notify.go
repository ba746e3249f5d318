// Package notify sends Discord webhook notifications. Delivery is
// strictly best-effort: failures are reported as a boolean and never
// block the operation that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Embed limits enforced by Discord.
const (
	maxTitleLen       = 256
	maxDescriptionLen = 4096
	maxFieldValueLen  = 1024
	maxEmbedTotalLen  = 6000
)

// Colors used across the service's notifications.
const (
	ColorBlurple = 0x5865F2
	ColorBlue    = 0x00AAFF
	ColorAmber   = 0xFFAA00
	ColorGreen   = 0x00FF00
	ColorRed     = 0xFF0000
)

// Field is one name/value pair rendered inside an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Message describes a single notification.
type Message struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
}

// Sender is the side-channel interface consumed by the analyzer, the
// merge gate and the webhook dispatcher.
type Sender interface {
	Notify(ctx context.Context, msg Message) bool
}

// Notifier sends embeds to a Discord webhook. A Notifier with an empty
// webhook URL is a valid no-op sender.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Notifier for the given webhook URL. An empty URL
// disables sending.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		// Dedicated client, isolated from http.DefaultClient.
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Notify sends one embed and reports whether the webhook accepted it.
// Returns false without any network call when no webhook is configured.
func (n *Notifier) Notify(ctx context.Context, msg Message) bool {
	if n.webhookURL == "" {
		slog.Warn("discord notification skipped: no webhook URL configured")
		return false
	}

	body, err := json.Marshal(buildPayload(msg))
	if err != nil {
		slog.Error("marshaling discord payload", "error", err)
		return false
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("creating discord request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Error("sending discord notification", "error", err)
		return false
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusNoContent {
		slog.Error("discord notification failed", "status", resp.StatusCode, "body", string(respBody))
		return false
	}

	slog.Info("discord notification sent", "title", msg.Title)
	return true
}

// buildPayload constructs the webhook body, clamping each component to
// Discord's embed limits.
func buildPayload(msg Message) map[string]any {
	title := truncate(msg.Title, maxTitleLen)
	description := truncate(msg.Description, maxDescriptionLen)

	total := len(title) + len(description)
	fields := make([]Field, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		f.Value = truncate(f.Value, maxFieldValueLen)
		total += len(f.Name) + len(f.Value)
		fields = append(fields, f)
	}

	// The sum of all embed parts may not exceed the total cap; trim the
	// description first since it is the least structured part.
	if over := total - maxEmbedTotalLen; over > 0 && len(description) > over {
		description = truncate(description, len(description)-over)
	}

	embed := map[string]any{
		"title":       title,
		"description": description,
		"color":       msg.Color,
	}
	if len(fields) > 0 {
		embed["fields"] = fields
	}

	return map[string]any{
		"embeds": []map[string]any{embed},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
