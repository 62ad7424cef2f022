// Package command parses prefix commands such as "!card Lightning Bolt" and
// produces the bot's replies for them.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
)

// DefaultPrefix is used when no command prefix is configured.
const DefaultPrefix = "!"

// ErrUnknownCommand is returned by Dispatch for unregistered command names.
var ErrUnknownCommand = errors.New("command: unknown command")

// genericFailure is shown in chat for errors that are not resolution failures.
const genericFailure = "Something went wrong while looking up that card. Please try again in a moment."

// Invocation is a parsed command message.
type Invocation struct {
	// Name is the lower-cased command name without the prefix.
	Name string
	// Args is the trimmed remainder of the message, possibly empty.
	Args string
}

// Parse splits content into a command invocation. It reports false when
// content does not start with prefix or when the prefix is not immediately
// followed by a command name.
func Parse(prefix, content string) (Invocation, bool) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return Invocation{}, false
	}
	rest := content[len(prefix):]
	if rest == "" || strings.TrimLeft(rest, " \t") != rest {
		return Invocation{}, false
	}

	name, args, _ := strings.Cut(rest, " ")
	return Invocation{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}, true
}

// Handler produces the reply for one invocation in a channel.
type Handler func(ctx context.Context, inv Invocation, channelID string) (*discordgo.MessageSend, error)

type entry struct {
	usage       string
	description string
	handler     Handler
}

// Dispatcher routes invocations to registered handlers.
type Dispatcher struct {
	prefix   string
	resolver resolve.CardResolver
	prices   resolve.PriceSource
	sets     resolve.SetLookup
	logger   *slog.Logger
	handlers map[string]entry
}

// Option configures optional Dispatcher commands.
type Option func(*Dispatcher)

// WithPrices enables the price command.
func WithPrices(p resolve.PriceSource) Option {
	return func(d *Dispatcher) { d.prices = p }
}

// WithSets enables the set command.
func WithSets(l resolve.SetLookup) Option {
	return func(d *Dispatcher) { d.sets = l }
}

// NewDispatcher returns a Dispatcher with the built-in card commands
// registered. An empty prefix defaults to DefaultPrefix; a nil logger defaults
// to slog.Default().
func NewDispatcher(prefix string, r resolve.CardResolver, logger *slog.Logger, opts ...Option) *Dispatcher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		prefix:   prefix,
		resolver: r,
		logger:   logger,
		handlers: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.Register("card", "[card name]", "Show a card.", d.cardCommand(card.Embed))
	d.Register("oracle", "[card name]", "Show the rules text of a card.", d.cardCommand(card.OracleEmbed))
	d.Register("art", "[card name]", "Show the art of a card.", d.cardCommand(card.ArtEmbed))
	d.Register("legality", "[card name]", "Show the format legality of a card.", d.cardCommand(card.LegalityEmbed))
	d.Register("rulings", "[card name]", "Show the official rulings for a card.", d.cardCommand(card.RulingsEmbed))
	d.Register("printings", "[card name]", "Show the sets a card was printed in.", d.cardCommand(card.PrintingsEmbed))
	if d.prices != nil {
		d.Register("price", "[card name]", "Show Card Kingdom prices for a card.", d.priceCommand)
	}
	if d.sets != nil {
		d.Register("set", "<code|name>", "Show a set.", d.setCommand)
	}
	d.Register("help", "", "List the available commands.", d.helpCommand)

	return d
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Register adds or replaces the handler for name.
func (d *Dispatcher) Register(name, usage, description string, h Handler) {
	d.handlers[strings.ToLower(name)] = entry{usage: usage, description: description, handler: h}
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler registered for inv.Name.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation, channelID string) (*discordgo.MessageSend, error) {
	e, ok := d.handlers[inv.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, inv.Name)
	}
	d.logger.Debug("dispatching command", "command", inv.Name, "args", inv.Args, "channel", channelID)
	return e.handler(ctx, inv, channelID)
}

// cardCommand resolves the invocation's arguments to a card and renders it.
// Blank arguments refer to the channel's most recently mentioned card.
func (d *Dispatcher) cardCommand(render func(card.Card) *discordgo.MessageEmbed) Handler {
	return func(ctx context.Context, inv Invocation, channelID string) (*discordgo.MessageSend, error) {
		c, err := d.resolver.ObtainRecentOrSpecified(ctx, inv.Args, channelID)
		if err != nil {
			return nil, err
		}
		return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{render(c)}}, nil
	}
}

func (d *Dispatcher) priceCommand(ctx context.Context, inv Invocation, channelID string) (*discordgo.MessageSend, error) {
	c, err := d.resolver.ObtainRecentOrSpecified(ctx, inv.Args, channelID)
	if err != nil {
		return nil, err
	}
	prices, err := d.prices.Prices(ctx, c.Name)
	if err != nil {
		return nil, fmt.Errorf("command: price lookup for %q: %w", c.Name, err)
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{card.PriceEmbed(c, prices)}}, nil
}

func (d *Dispatcher) setCommand(ctx context.Context, inv Invocation, channelID string) (*discordgo.MessageSend, error) {
	if strings.TrimSpace(inv.Args) == "" {
		return &discordgo.MessageSend{Content: "Usage: `" + d.prefix + "set <code|name>`"}, nil
	}
	s, err := resolve.ResolveSet(ctx, d.sets, inv.Args)
	if err != nil {
		return nil, err
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{card.SetEmbed(s)}}, nil
}

func (d *Dispatcher) helpCommand(ctx context.Context, inv Invocation, channelID string) (*discordgo.MessageSend, error) {
	var b strings.Builder
	for _, name := range d.Commands() {
		e := d.handlers[name]
		line := "`" + d.prefix + name
		if e.usage != "" {
			line += " " + e.usage
		}
		fmt.Fprintf(&b, "%s` %s\n", line, e.description)
	}
	b.WriteString("\nMention a card inline with <<Card Name>>. Commands without a card name use the last card mentioned in the channel.")

	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{{
		Title:       "Commands",
		Description: b.String(),
	}}}, nil
}

// ReplyForError returns the chat message for a failed command or inline
// reference. Resolution failures are shown verbatim; anything else gets a
// generic apology.
func ReplyForError(err error) string {
	var re *resolve.ResolutionError
	if errors.As(err, &re) {
		return re.Error()
	}
	return genericFailure
}
