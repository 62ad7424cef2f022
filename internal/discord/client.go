package discord

import "github.com/bwmarrin/discordgo"

// DiscordClient defines the subset of the Discord REST API the bot replies
// through. The concrete *discordgo.Session type satisfies this interface.
type DiscordClient interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// Compile-time assertion: *discordgo.Session satisfies DiscordClient.
var _ DiscordClient = (*discordgo.Session)(nil)
