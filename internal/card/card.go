// Package card defines the catalog card record shared by the lookup client,
// the mention store and the Discord renderers.
package card

import (
	"fmt"
	"strings"
)

// Ruling is a single official ruling attached to a card.
type Ruling struct {
	Date string `json:"date" yaml:"date"`
	Text string `json:"text" yaml:"text"`
}

// Legality is the legality of a card in one play format.
type Legality struct {
	Format   string `json:"format" yaml:"format"`
	Legality string `json:"legality" yaml:"legality"`
}

// Card is a catalog entry as returned by the card lookup service. Only Name is
// guaranteed to be set; every other field is passed through as received.
type Card struct {
	ID           string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string     `json:"name" yaml:"name"`
	ManaCost     string     `json:"manaCost,omitempty" yaml:"mana_cost,omitempty"`
	CMC          float64    `json:"cmc,omitempty" yaml:"cmc,omitempty"`
	Colors       []string   `json:"colors,omitempty" yaml:"colors,omitempty"`
	Type         string     `json:"type,omitempty" yaml:"type,omitempty"`
	Rarity       string     `json:"rarity,omitempty" yaml:"rarity,omitempty"`
	Set          string     `json:"set,omitempty" yaml:"set,omitempty"`
	SetName      string     `json:"setName,omitempty" yaml:"set_name,omitempty"`
	Text         string     `json:"text,omitempty" yaml:"text,omitempty"`
	Flavor       string     `json:"flavor,omitempty" yaml:"flavor,omitempty"`
	Artist       string     `json:"artist,omitempty" yaml:"artist,omitempty"`
	Number       string     `json:"number,omitempty" yaml:"number,omitempty"`
	Power        string     `json:"power,omitempty" yaml:"power,omitempty"`
	Toughness    string     `json:"toughness,omitempty" yaml:"toughness,omitempty"`
	Loyalty      string     `json:"loyalty,omitempty" yaml:"loyalty,omitempty"`
	MultiverseID string     `json:"multiverseid,omitempty" yaml:"multiverse_id,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	Printings    []string   `json:"printings,omitempty" yaml:"printings,omitempty"`
	Rulings      []Ruling   `json:"rulings,omitempty" yaml:"rulings,omitempty"`
	Legalities   []Legality `json:"legalities,omitempty" yaml:"legalities,omitempty"`
}

// Query is the lookup key sent to the card lookup service.
type Query struct {
	Name string `json:"name"`
}

// GathererURL returns the Gatherer details page for the card, or "" when the
// card carries no multiverse id.
func (c Card) GathererURL() string {
	if c.MultiverseID == "" {
		return ""
	}
	return "https://gatherer.wizards.com/Pages/Card/Details.aspx?multiverseid=" + c.MultiverseID
}

// Stats returns the power/toughness or loyalty line, or "" when the card has
// neither.
func (c Card) Stats() string {
	switch {
	case c.Power != "" || c.Toughness != "":
		return fmt.Sprintf("%s/%s", c.Power, c.Toughness)
	case c.Loyalty != "":
		return "Loyalty: " + c.Loyalty
	}
	return ""
}

// Names returns the names of the given cards in order.
func Names(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

// String implements fmt.Stringer.
func (c Card) String() string {
	parts := []string{c.Name}
	if c.ManaCost != "" {
		parts = append(parts, c.ManaCost)
	}
	if c.Set != "" {
		parts = append(parts, "("+c.Set+")")
	}
	return strings.Join(parts, " ")
}
