package card

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Price is one retailer listing of a card printing.
type Price struct {
	Name      string  `json:"name"`
	Edition   string  `json:"edition"`
	Variation string  `json:"variation,omitempty"`
	Foil      bool    `json:"foil"`
	Retail    float64 `json:"retail"`
	RetailQty int     `json:"retailQty"`
	Buy       float64 `json:"buy"`
	BuyQty    int     `json:"buyQty"`
	URL       string  `json:"url,omitempty"`
}

// Label names the printing, e.g. "Alpha (Foil)".
func (p Price) Label() string {
	label := p.Edition
	if p.Variation != "" {
		label += " " + p.Variation
	}
	if p.Foil {
		label += " (Foil)"
	}
	return label
}

// PriceEmbed renders one field per printing listed for c.
func PriceEmbed(c Card, prices []Price) *discordgo.MessageEmbed {
	e := c.baseEmbed()
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Prices from Card Kingdom"}
	if len(prices) == 0 {
		setDescription(e, "_No listings were found for this card._")
		return e
	}
	for i, p := range prices {
		value := fmt.Sprintf("Sell: $%.2f (%d in stock)\nBuylist: $%.2f", p.Retail, p.RetailQty, p.Buy)
		if p.RetailQty == 0 {
			value = fmt.Sprintf("Sell: out of stock\nBuylist: $%.2f", p.Buy)
		}
		if !addField(e, p.Label(), value, true) {
			noteOmitted(e, len(prices)-i, "printings")
			break
		}
	}
	return e
}
