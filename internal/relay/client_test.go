package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/pkg/logger"
)

func newTestClient(url string) *Client {
	return NewClient(config.AgentConfig{
		Enabled:        true,
		WebhookURL:     url,
		SenderID:       "test-user",
		TimeoutSeconds: 5,
	}, logger.NewNop())
}

func TestSendForwardsPayload(t *testing.T) {
	var got request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`[{"recipient_id":"test-user","text":"Your balance is $500"}]`))
	}))
	defer server.Close()

	replies := newTestClient(server.URL).Send("what is my balance")

	if got.Sender != "test-user" {
		t.Errorf("sender = %q, want test-user", got.Sender)
	}
	if got.Message != "what is my balance" {
		t.Errorf("message = %q, want original transcript", got.Message)
	}
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	if replies[0].Text != "Your balance is $500" {
		t.Errorf("reply text = %q", replies[0].Text)
	}
}

func TestSendMultipleReplies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"text":"Hello"},{"text":"How can I help you today?"}]`))
	}))
	defer server.Close()

	replies := newTestClient(server.URL).Send("hi")
	if len(replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(replies))
	}
	if replies[0].Text != "Hello" || replies[1].Text != "How can I help you today?" {
		t.Errorf("unexpected replies: %+v", replies)
	}
}

func TestSendNon200DegradesToSyntheticReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	replies := newTestClient(server.URL).Send("hello")
	if len(replies) != 1 {
		t.Fatalf("expected a single synthetic reply, got %d", len(replies))
	}
	if replies[0].Text == "" {
		t.Error("synthetic reply has empty text")
	}
}

func TestSendMalformedBodyDegradesToSyntheticReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer server.Close()

	replies := newTestClient(server.URL).Send("hello")
	if len(replies) != 1 || replies[0].Text == "" {
		t.Fatalf("expected a single synthetic reply, got %+v", replies)
	}
}

func TestSendUnreachableAgentDegradesToSyntheticReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	replies := newTestClient(server.URL).Send("hello")
	if len(replies) != 1 || replies[0].Text == "" {
		t.Fatalf("expected a single synthetic reply, got %+v", replies)
	}
}

func TestSendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := NewClient(config.AgentConfig{
		Enabled:        true,
		WebhookURL:     server.URL,
		SenderID:       "test-user",
		TimeoutSeconds: 1,
	}, logger.NewNop())

	start := time.Now()
	replies := client.Send("hello")
	if elapsed := time.Since(start); elapsed > 1900*time.Millisecond {
		t.Errorf("Send took %v, timeout not enforced", elapsed)
	}
	if len(replies) != 1 || replies[0].Text == "" {
		t.Fatalf("expected a single synthetic reply, got %+v", replies)
	}
}

func TestGeneratedSenderID(t *testing.T) {
	client := NewClient(config.AgentConfig{
		Enabled:        true,
		WebhookURL:     "http://localhost:5005/webhooks/rest/webhook",
		TimeoutSeconds: 5,
	}, logger.NewNop())

	if !strings.HasPrefix(client.senderID, "voice-") {
		t.Errorf("senderID = %q, want generated voice-* identifier", client.senderID)
	}
	if len(client.senderID) <= len("voice-") {
		t.Error("generated senderID has no unique suffix")
	}
}
