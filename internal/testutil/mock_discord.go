// Package testutil provides shared test infrastructure for grimoire-mcp tests.
//
// NewMockDiscordSession starts an httptest.Server that simulates the Discord
// REST endpoints the bot replies through and returns a *discordgo.Session
// pointing to it. The function-field mocks cover the resolver collaborators.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// endpointMu serializes mutation of discordgo's package-level endpoints.
var endpointMu sync.Mutex

// MockDiscord bundles the test server and discordgo session together so callers
// can inspect what the bot posted.
type MockDiscord struct {
	Server  *httptest.Server
	Session *discordgo.Session

	mu       sync.Mutex
	messages []*discordgo.MessageSend
}

// Close shuts down the test server. It should be called via t.Cleanup.
func (m *MockDiscord) Close() {
	m.Server.Close()
}

// Messages returns the message payloads posted to the server, in order.
func (m *MockDiscord) Messages() []*discordgo.MessageSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*discordgo.MessageSend, len(m.messages))
	copy(out, m.messages)
	return out
}

// NewMockDiscordSession starts an httptest.Server handling
//
//	POST /api/v9/channels/{id}/messages
//	POST /api/v9/channels/{id}/typing
//
// and returns a MockDiscord wrapping both the server and a discordgo.Session
// pointed at it. Because discordgo's endpoints are package variables, tests
// using this helper must not run in parallel with each other.
//
//	md := testutil.NewMockDiscordSession(t)
//	t.Cleanup(md.Close)
func NewMockDiscordSession(t *testing.T) *MockDiscord {
	t.Helper()

	md := &MockDiscord{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v"+discordgo.APIVersion+"/channels/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v"+discordgo.APIVersion+"/channels/")
		parts := strings.Split(path, "/")
		if len(parts) != 2 || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		channelID := parts[0]

		switch parts[1] {
		case "messages":
			var body discordgo.MessageSend
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			md.mu.Lock()
			md.messages = append(md.messages, &body)
			md.mu.Unlock()
			writeJSON(w, &discordgo.Message{
				ID:        "mock-msg-001",
				ChannelID: channelID,
				Content:   body.Content,
			})
		case "typing":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	md.Server = httptest.NewServer(mux)

	endpointMu.Lock()
	origDiscord, origAPI, origChannels := discordgo.EndpointDiscord, discordgo.EndpointAPI, discordgo.EndpointChannels
	discordgo.EndpointDiscord = md.Server.URL + "/"
	discordgo.EndpointAPI = discordgo.EndpointDiscord + "api/v" + discordgo.APIVersion + "/"
	discordgo.EndpointChannels = discordgo.EndpointAPI + "channels/"
	endpointMu.Unlock()

	t.Cleanup(func() {
		endpointMu.Lock()
		discordgo.EndpointDiscord, discordgo.EndpointAPI, discordgo.EndpointChannels = origDiscord, origAPI, origChannels
		endpointMu.Unlock()
	})

	dg, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("testutil: discordgo.New failed: %v", err)
	}
	md.Session = dg

	return md
}

// writeJSON marshals v as JSON and writes it to w with 200 OK.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
