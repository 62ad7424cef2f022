package testutil

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/jamesprial/grimoire-mcp/internal/discord"
)

// Compile-time assertion: *MockDiscordClient satisfies discord.DiscordClient.
var _ discord.DiscordClient = (*MockDiscordClient)(nil)

// SentMessage is one message captured by MockDiscordClient.
type SentMessage struct {
	ChannelID string
	Data      *discordgo.MessageSend
}

// MockDiscordClient implements discord.DiscordClient using configurable function
// fields. Every sent message is captured; when a field is nil the method
// succeeds with a canned response.
type MockDiscordClient struct {
	ChannelMessageSendComplexFunc func(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTypingFunc             func(channelID string, options ...discordgo.RequestOption) error

	mu   sync.Mutex
	sent []SentMessage
}

func (m *MockDiscordClient) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{ChannelID: channelID, Data: data})
	m.mu.Unlock()

	if m.ChannelMessageSendComplexFunc != nil {
		return m.ChannelMessageSendComplexFunc(channelID, data, options...)
	}
	return &discordgo.Message{
		ID:        "mock-msg-001",
		ChannelID: channelID,
		Content:   data.Content,
	}, nil
}

func (m *MockDiscordClient) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	if m.ChannelTypingFunc != nil {
		return m.ChannelTypingFunc(channelID, options...)
	}
	return nil
}

// Sent returns a copy of the messages sent so far, in order.
func (m *MockDiscordClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
