package discord

import "github.com/bwmarrin/discordgo"

// NewSessionForTest exposes newSession to the external test package.
var NewSessionForTest = newSession

// HandleMessage drives the message handler the gateway would invoke.
func (s *Session) HandleMessage(event *discordgo.MessageCreate) {
	s.onMessageCreate(nil, event)
}
