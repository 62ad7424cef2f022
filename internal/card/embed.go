package card

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Embed colours by colour identity.
const (
	colorWhite     = 0xF8F6D8
	colorBlue      = 0x0E68AB
	colorBlack     = 0x150B00
	colorRed       = 0xD3202A
	colorGreen     = 0x00733E
	colorGold      = 0xCFB53B
	colorColorless = 0xBEBEBE
	colorLand      = 0x8B5A2B
)

// Discord rejects a whole message when one of its embeds exceeds any of these
// limits, counted in characters.
const (
	maxEmbedFields = 25
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
	maxEmbedTotal  = 6000
)

const ellipsis = "…"

// Color returns the embed colour for the card, derived from the coloured mana
// symbols in its mana cost. Multicoloured cards are gold; lands without a mana
// cost are brown.
func (c Card) Color() int {
	seen := map[rune]bool{}
	for _, sym := range "WUBRG" {
		if strings.ContainsRune(strings.ToUpper(c.ManaCost), sym) {
			seen[sym] = true
		}
	}
	switch len(seen) {
	case 0:
		if c.ManaCost == "" && strings.Contains(c.Type, "Land") {
			return colorLand
		}
		return colorColorless
	case 1:
		for sym := range seen {
			switch sym {
			case 'W':
				return colorWhite
			case 'U':
				return colorBlue
			case 'B':
				return colorBlack
			case 'R':
				return colorRed
			case 'G':
				return colorGreen
			}
		}
	}
	return colorGold
}

func (c Card) baseEmbed() *discordgo.MessageEmbed {
	title := c.Name
	if c.ManaCost != "" {
		title += " " + c.ManaCost
	}
	e := &discordgo.MessageEmbed{
		Title: truncate(title, maxTitle),
		URL:   c.GathererURL(),
		Color: c.Color(),
	}
	if c.SetName != "" || c.Set != "" {
		footer := strings.TrimSpace(fmt.Sprintf("%s (%s) %s", c.SetName, c.Set, c.Rarity))
		e.Footer = &discordgo.MessageEmbedFooter{Text: truncate(footer, maxFooter)}
	}
	return e
}

// truncate cuts s to at most limit characters, marking the cut with an
// ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-utf8.RuneCountInString(ellipsis)]) + ellipsis
}

// orDash stands in for blank field names and values, which Discord rejects.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// EmbedLength returns the size of e as Discord counts it against the
// 6000-character embed limit.
func EmbedLength(e *discordgo.MessageEmbed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	if e.Author != nil {
		n += utf8.RuneCountInString(e.Author.Name)
	}
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

// setDescription sets the description, truncated to fit.
func setDescription(e *discordgo.MessageEmbed, s string) {
	e.Description = truncate(s, maxDescription)
}

// addField appends a field with its name and value clamped to Discord's
// limits. It reports false, leaving e unchanged, when the field count or the
// embed total would be exceeded.
func addField(e *discordgo.MessageEmbed, name, value string, inline bool) bool {
	if len(e.Fields) >= maxEmbedFields {
		return false
	}
	name = truncate(orDash(name), maxFieldName)
	value = truncate(orDash(value), maxFieldValue)
	if EmbedLength(e)+utf8.RuneCountInString(name)+utf8.RuneCountInString(value) > maxEmbedTotal {
		return false
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline})
	return true
}

// noteOmitted records in the description that n items did not fit, dropping
// trailing fields until the note itself fits.
func noteOmitted(e *discordgo.MessageEmbed, n int, noun string) {
	if n == 0 {
		return
	}
	for {
		note := fmt.Sprintf("_%d more %s not shown._", n, noun)
		if EmbedLength(e)+utf8.RuneCountInString(note) <= maxEmbedTotal || len(e.Fields) == 0 {
			e.Description = note
			return
		}
		e.Fields = e.Fields[:len(e.Fields)-1]
		n++
	}
}

// Embed renders the full card: type line, rules text, stats, flavor and a
// thumbnail of the card image.
func Embed(c Card) *discordgo.MessageEmbed {
	e := c.baseEmbed()

	var b strings.Builder
	if c.Type != "" {
		fmt.Fprintf(&b, "**%s**\n", c.Type)
	}
	if c.Text != "" {
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	if stats := c.Stats(); stats != "" {
		fmt.Fprintf(&b, "**%s**\n", stats)
	}
	if c.Flavor != "" {
		fmt.Fprintf(&b, "\n_%s_", c.Flavor)
	}
	setDescription(e, strings.TrimSpace(b.String()))

	if c.ImageURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.ImageURL}
	}
	return e
}

// OracleEmbed renders only the rules text of the card.
func OracleEmbed(c Card) *discordgo.MessageEmbed {
	e := c.baseEmbed()
	if c.Text == "" {
		e.Description = "_This card has no rules text._"
		return e
	}
	setDescription(e, c.Text)
	return e
}

// ArtEmbed renders the card image at full size.
func ArtEmbed(c Card) *discordgo.MessageEmbed {
	e := c.baseEmbed()
	if c.ImageURL == "" {
		e.Description = "_No image is available for this printing._"
		return e
	}
	e.Image = &discordgo.MessageEmbedImage{URL: c.ImageURL}
	if c.Artist != "" {
		setDescription(e, "Illustrated by "+c.Artist)
	}
	return e
}

// LegalityEmbed renders one inline field per play format.
func LegalityEmbed(c Card) *discordgo.MessageEmbed {
	e := c.baseEmbed()
	if len(c.Legalities) == 0 {
		e.Description = "_No legality information is known for this card._"
		return e
	}
	for i, l := range c.Legalities {
		if !addField(e, l.Format, l.Legality, true) {
			noteOmitted(e, len(c.Legalities)-i, "formats")
			break
		}
	}
	return e
}

// RulingsEmbed renders the official rulings, newest last as the catalog
// returns them.
func RulingsEmbed(c Card) *discordgo.MessageEmbed {
	e := c.baseEmbed()
	if len(c.Rulings) == 0 {
		e.Description = "_There are no rulings for this card._"
		return e
	}
	for i, r := range c.Rulings {
		if !addField(e, r.Date, r.Text, false) {
			noteOmitted(e, len(c.Rulings)-i, "rulings")
			break
		}
	}
	return e
}

// PrintingsEmbed lists the set codes the card was printed in.
func PrintingsEmbed(c Card) *discordgo.MessageEmbed {
	e := c.baseEmbed()
	if len(c.Printings) == 0 {
		e.Description = "_No printings are known for this card._"
		return e
	}
	setDescription(e, strings.Join(c.Printings, ", "))
	return e
}
