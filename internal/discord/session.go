// Package discord connects the card resolver to a Discord gateway session:
// it answers prefix commands and inline <<card>> references in chat.
package discord

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/command"
	"github.com/jamesprial/grimoire-mcp/internal/inline"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
)

// MentionRecorder records that a card was mentioned in a channel.
type MentionRecorder interface {
	Record(channelID string, c card.Card)
}

// Settings tunes message handling.
type Settings struct {
	// GuildID restricts handling to one guild. Empty means every guild and
	// direct messages.
	GuildID string
	// MaxInlineReferences caps how many inline references in one message are
	// answered. Zero or less means 5.
	MaxInlineReferences int
	// ReplyTimeout bounds the work done for one message. Zero or less means
	// 30 seconds.
	ReplyTimeout time.Duration
}

// Session wraps a discordgo.Session and answers card requests arriving on it.
type Session struct {
	dg        *discordgo.Session
	client    DiscordClient
	guildID   string
	maxInline int
	timeout   time.Duration
	resolver  resolve.CardResolver
	mentions  MentionRecorder
	commands  *command.Dispatcher
	logger    *slog.Logger
}

// NewFromSession wraps an existing *discordgo.Session, registering the ready
// and message handlers and configuring the required gateway intents. A nil
// logger defaults to slog.Default().
//
// Intents enabled:
//   - IntentGuilds
//   - IntentGuildMessages
//   - IntentDirectMessages
//   - IntentMessageContent
func NewFromSession(
	dg *discordgo.Session,
	settings Settings,
	r resolve.CardResolver,
	m MentionRecorder,
	d *command.Dispatcher,
	logger *slog.Logger,
) *Session {
	s := newSession(dg, settings, r, m, d, logger)
	s.dg = dg

	dg.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	dg.AddHandler(s.onReady)
	dg.AddHandler(s.onMessageCreate)

	return s
}

// newSession builds a Session replying through client without touching any
// gateway. Tests drive its handlers directly.
func newSession(
	client DiscordClient,
	settings Settings,
	r resolve.CardResolver,
	m MentionRecorder,
	d *command.Dispatcher,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.MaxInlineReferences <= 0 {
		settings.MaxInlineReferences = 5
	}
	if settings.ReplyTimeout <= 0 {
		settings.ReplyTimeout = 30 * time.Second
	}
	return &Session{
		client:    client,
		guildID:   settings.GuildID,
		maxInline: settings.MaxInlineReferences,
		timeout:   settings.ReplyTimeout,
		resolver:  r,
		mentions:  m,
		commands:  d,
		logger:    logger,
	}
}

// Open establishes the WebSocket connection to the Discord gateway.
func (s *Session) Open() error {
	return s.dg.Open()
}

// Close gracefully closes the WebSocket connection to the Discord gateway.
func (s *Session) Close() error {
	return s.dg.Close()
}

func (s *Session) onReady(_ *discordgo.Session, event *discordgo.Ready) {
	s.logger.Info("discord connected",
		"username", event.User.Username,
		"guilds", len(event.Guilds),
	)
}

// onMessageCreate ignores bots and messages from other guilds, then treats the
// message either as a command or as a carrier of inline references.
func (s *Session) onMessageCreate(_ *discordgo.Session, event *discordgo.MessageCreate) {
	if event.Author == nil || event.Author.Bot {
		return
	}
	if s.guildID != "" && event.GuildID != s.guildID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if inv, ok := command.Parse(s.commands.Prefix(), event.Content); ok {
		s.handleCommand(ctx, event, inv)
		return
	}

	for _, name := range inline.Parse(event.Content, s.maxInline) {
		s.handleReference(ctx, event, name)
	}
}

func (s *Session) handleCommand(ctx context.Context, event *discordgo.MessageCreate, inv command.Invocation) {
	s.typing(event.ChannelID)

	reply, err := s.commands.Dispatch(ctx, inv, event.ChannelID)
	if errors.Is(err, command.ErrUnknownCommand) {
		s.logger.Debug("ignoring unknown command", "command", inv.Name, "channel", event.ChannelID)
		return
	}
	if err != nil {
		s.replyError(event, err)
		return
	}
	s.reply(event, reply)
}

// handleReference resolves one inline reference and, on success, records it
// as the channel's most recent mention.
func (s *Session) handleReference(ctx context.Context, event *discordgo.MessageCreate, name string) {
	s.typing(event.ChannelID)

	c, err := s.resolver.ObtainRecentOrSpecified(ctx, name, event.ChannelID)
	if err != nil {
		s.replyError(event, err)
		return
	}
	s.mentions.Record(event.ChannelID, c)
	s.logger.Debug("inline reference resolved", "name", name, "card", c.Name, "channel", event.ChannelID)

	s.reply(event, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{card.Embed(c)}})
}

func (s *Session) replyError(event *discordgo.MessageCreate, err error) {
	if !resolve.IsResolution(err) {
		s.logger.Warn("card request failed", "channel", event.ChannelID, "content", event.Content, "error", err)
	}
	s.reply(event, &discordgo.MessageSend{Content: command.ReplyForError(err)})
}

// reply sends msg as a reply to the triggering message, pinging only its
// author.
func (s *Session) reply(event *discordgo.MessageCreate, msg *discordgo.MessageSend) {
	msg.Reference = event.Reference()
	msg.AllowedMentions = &discordgo.MessageAllowedMentions{RepliedUser: true}

	if _, err := s.client.ChannelMessageSendComplex(event.ChannelID, msg); err != nil {
		s.logger.Warn("failed to send reply", "channel", event.ChannelID, "error", err)
	}
}

func (s *Session) typing(channelID string) {
	if err := s.client.ChannelTyping(channelID); err != nil {
		s.logger.Debug("typing indicator failed", "channel", channelID, "error", err)
	}
}
