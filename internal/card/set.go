package card

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Set is a catalog expansion or product.
type Set struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Border      string `json:"border,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Block       string `json:"block,omitempty"`
	OnlineOnly  bool   `json:"onlineOnly,omitempty"`
}

// Label returns "Name (CODE)".
func (s Set) Label() string {
	return fmt.Sprintf("%s (%s)", s.Name, strings.ToUpper(s.Code))
}

// SetLabels returns the labels of the given sets in order.
func SetLabels(sets []Set) []string {
	out := make([]string, len(sets))
	for i, s := range sets {
		out[i] = s.Label()
	}
	return out
}

// SetEmbed renders a set as inline fields.
func SetEmbed(s Set) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: truncate(s.Label(), maxTitle),
		Color: colorColorless,
	}
	addField(e, "Type", s.Type, true)
	addField(e, "Released", s.ReleaseDate, true)
	if s.Block != "" {
		addField(e, "Block", s.Block, true)
	}
	if s.Border != "" {
		addField(e, "Border", s.Border, true)
	}
	if s.OnlineOnly {
		setDescription(e, "_This set was released online only._")
	}
	return e
}
