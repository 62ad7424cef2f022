// Command grimoire-mcp runs the Magic: The Gathering card bot on Discord and
// exposes the same card lookups as MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/grimoire-mcp/internal/auth"
	"github.com/jamesprial/grimoire-mcp/internal/cardtools"
	"github.com/jamesprial/grimoire-mcp/internal/catalog"
	"github.com/jamesprial/grimoire-mcp/internal/command"
	"github.com/jamesprial/grimoire-mcp/internal/config"
	"github.com/jamesprial/grimoire-mcp/internal/discord"
	"github.com/jamesprial/grimoire-mcp/internal/mention"
	"github.com/jamesprial/grimoire-mcp/internal/pricing"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
	"github.com/jamesprial/grimoire-mcp/internal/tools"
)

const (
	defaultConfigPath = "config.yaml"
	version           = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("grimoire-mcp exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config and apply environment overrides.
	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Configure logging. Stdout carries the stdio transport, so logs go to stderr.
	level, _ := cfg.Logging.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 3. Build the mention history, restoring any saved state.
	mentions := mention.New(mention.WithMaxSize(cfg.Mentions.HistorySize))
	if path := cfg.Mentions.StatePath; path != "" {
		if err := mentions.LoadFile(path); err != nil {
			logger.Warn("could not restore mention history, starting empty", "path", path, "error", err)
		} else {
			logger.Info("restored mention history", "path", path, "records", mentions.Len())
		}
	}

	// 4. Build the catalog and price clients, resolver and command dispatcher.
	minWait, maxWait := cfg.Catalog.RetryWait()
	cards := catalog.New(
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithTimeout(cfg.Catalog.Timeout()),
		catalog.WithRetryMax(cfg.Catalog.RetryMax),
		catalog.WithRetryWait(minWait, maxWait),
		catalog.WithLogger(logger.With("component", "catalog")),
	)
	resolver := resolve.New(mentions, cards, logger.With("component", "resolve"))

	cmdOpts := []command.Option{command.WithSets(cards)}
	var prices *pricing.Client
	if cfg.Pricing.Enabled {
		prices = pricing.New(
			pricing.WithURL(cfg.Pricing.URL),
			pricing.WithRefreshInterval(cfg.Pricing.RefreshInterval()),
			pricing.WithTimeout(cfg.Pricing.Timeout()),
			pricing.WithLogger(logger.With("component", "pricing")),
		)
		cmdOpts = append(cmdOpts, command.WithPrices(prices))
	}
	dispatcher := command.NewDispatcher(cfg.Discord.CommandPrefix, resolver, logger.With("component", "command"), cmdOpts...)

	// 5. Create the Discord session and open the gateway.
	rawDG, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	bot := discord.NewFromSession(rawDG, discord.Settings{
		GuildID:             cfg.Discord.GuildID,
		MaxInlineReferences: cfg.Inline.MaxReferences,
	}, resolver, mentions, dispatcher, logger.With("component", "discord"))

	if err := bot.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	defer func() {
		if err := bot.Close(); err != nil {
			logger.Warn("Discord close error", "error", err)
		}
		saveMentions(logger, mentions, cfg.Mentions.StatePath)
	}()

	// 6. Build the MCP server and register the card, set and price tools.
	mcpServer := server.NewMCPServer(
		"grimoire-mcp",
		version,
		server.WithToolCapabilities(false),
	)
	toolLogger := logger.With("component", "tools")
	regs := cardtools.CardTools(resolver, mentions, toolLogger)
	regs = append(regs, cardtools.SetTools(cards, toolLogger)...)
	if prices != nil {
		regs = append(regs, cardtools.PriceTools(resolver, prices, toolLogger)...)
	}
	tools.RegisterAll(mcpServer, regs)

	// 7. Serve MCP over stdio or HTTP until told to stop.
	if useStdio() {
		logger.Info("starting in stdio mode")
		errLog := slog.NewLogLogger(logger.Handler(), slog.LevelError)
		if err := server.ServeStdio(mcpServer, server.WithErrorLogger(errLog)); err != nil {
			logger.Error("stdio server error", "error", err)
		}
		return nil
	}
	return serveHTTP(cfg, mcpServer, logger)
}

func serveHTTP(cfg *config.Config, mcpServer *server.MCPServer, logger *slog.Logger) error {
	handler := auth.RequireBearer(cfg.Server.AuthToken, logger.With("component", "auth"))(
		server.NewStreamableHTTPServer(mcpServer),
	)
	if cfg.Server.AuthToken == "" {
		logger.Warn("MCP HTTP transport has no auth token configured")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("HTTP shutdown error", "error", err)
	}
	return nil
}

func saveMentions(logger *slog.Logger, s *mention.Store, path string) {
	if path == "" {
		return
	}
	if err := s.SaveFile(path); err != nil {
		logger.Warn("could not save mention history", "path", path, "error", err)
		return
	}
	logger.Info("saved mention history", "path", path, "records", s.Len())
}

// useStdio returns true if the --stdio flag was passed on the command line.
func useStdio() bool {
	for _, arg := range os.Args[1:] {
		if arg == "--stdio" {
			return true
		}
	}
	return false
}

// loadConfig reads the config file named by GRIMOIRE_CONFIG_PATH, or
// "config.yaml". If the file cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("GRIMOIRE_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		slog.Info("using default config", "path", path, "reason", err)
		return config.DefaultConfig()
	}

	slog.Info("loaded config", "path", path)
	return cfg
}
