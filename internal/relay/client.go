// Package relay forwards transcripts to the external conversational agent
// and returns its structured reply, tolerating agent unavailability without
// failing the transcription request.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/pkg/logger"
)

// Cap on error body snippets embedded in synthetic replies
const maxErrorBodyBytes = 512

// Message is one reply from the agent. Richer payloads (buttons, custom
// data) are tolerated but not interpreted by the service.
type Message struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
}

// request is the fixed webhook payload contract
type request struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Client posts transcripts to the agent webhook. One attempt per request,
// bounded by the configured timeout; every failure mode degrades to a single
// synthetic reply instead of an error.
type Client struct {
	webhookURL string
	senderID   string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a relay client. An empty sender id gets a random
// per-process identity.
func NewClient(cfg config.AgentConfig, log *logger.Logger) *Client {
	senderID := cfg.SenderID
	if senderID == "" {
		senderID = "voice-" + uuid.NewString()
	}
	return &Client{
		webhookURL: cfg.WebhookURL,
		senderID:   senderID,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.Named("agent-relay"),
	}
}

// Send forwards a transcript to the agent and returns its replies. On
// network failure, non-200 response, or malformed payload it returns a
// single synthetic reply carrying a human-readable error; it never returns
// an error and never blocks beyond the client timeout.
func (c *Client) Send(text string) []Message {
	payload, err := json.Marshal(request{Sender: c.senderID, Message: text})
	if err != nil {
		// Marshaling two strings cannot realistically fail, but keep the
		// degradation contract anyway
		return syntheticReply(fmt.Sprintf("error encoding agent request: %v", err))
	}

	c.logger.Debug("Forwarding transcript to agent",
		logger.String("sender", c.senderID),
		logger.Int("chars", len(text)))

	resp, err := c.httpClient.Post(c.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("Agent request failed", logger.Error(err))
		return syntheticReply(fmt.Sprintf("error contacting agent: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Error("Agent returned non-OK status",
			logger.Int("status_code", resp.StatusCode),
			logger.String("body", string(body)))
		return syntheticReply(fmt.Sprintf("error from agent (%d): %s", resp.StatusCode, string(body)))
	}

	var replies []Message
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		c.logger.Error("Failed to decode agent reply", logger.Error(err))
		return syntheticReply(fmt.Sprintf("error decoding agent reply: %v", err))
	}

	c.logger.Debug("Agent replied", logger.Int("messages", len(replies)))
	return replies
}

func syntheticReply(msg string) []Message {
	return []Message{{Text: msg}}
}
