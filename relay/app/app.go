// Package app assembles the relay bot: configuration, access backend,
// engine, console, and the Telegram runtime options.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	corecmd "github.com/m3rciful/relaybot/core/cmd"
	coreconfig "github.com/m3rciful/relaybot/core/config"
	coredatabase "github.com/m3rciful/relaybot/core/database"
	"github.com/m3rciful/relaybot/core/logger"
	coretelegram "github.com/m3rciful/relaybot/core/telegram"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"
	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/engine"
	"github.com/m3rciful/relaybot/relay/panel"
	"github.com/m3rciful/relaybot/relay/state"
	"github.com/m3rciful/relaybot/relay/stats"
	relaytelegram "github.com/m3rciful/relaybot/relay/telegram"
)

// Config is the full process configuration: the core section inline plus
// the database backend settings.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig implements the cmd.ConfigCarrier interface.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads the YAML config file and applies environment overrides.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("app: parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("app: process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// App holds the wired relay bot components.
type App struct {
	cfg      *Config
	token    string
	access   *auth.Store
	engine   *engine.Engine
	console  *panel.Console
	handlers *relaytelegram.Handlers
}

// Bootstrap initializes the logger, the access backend, and the relay core.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	if err := logger.InitLogger(&cfg.Core); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	persister, err := buildPersister(cfg)
	if err != nil {
		return nil, err
	}

	access, err := auth.NewStore(persister)
	if err != nil {
		return nil, fmt.Errorf("app: access store init failed: %w", err)
	}

	token := strings.TrimSpace(cfg.Core.Telegram.Token)
	if token == "" {
		token = strings.TrimSpace(access.Token())
	}
	if token == "" {
		return nil, fmt.Errorf("app: bot token missing from config and access record")
	}

	return &App{cfg: cfg, token: token, access: access}, nil
}

func buildPersister(cfg *Config) (auth.Persister, error) {
	switch cfg.Core.Access.Backend {
	case coreconfig.BackendPostgres:
		db, err := coredatabase.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("app: database init failed: %w", err)
		}
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			db.Close()
			return nil, fmt.Errorf("app: migrations failed: %w", err)
		}
		return auth.NewPGStore(db), nil
	default:
		return auth.NewFileStore(cfg.Core.Access.File), nil
	}
}

// TelegramRunOptions wires the relay core into the Telegram runtime.
// The engine transport needs the bot instance, so the final assembly
// happens in OnStart-free fashion via a deferred transport.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	tracker := state.NewTracker()
	usage := stats.NewCollector()
	flag := engine.NewFlag()

	transport := &deferredTransport{}
	a.engine = engine.New(flag, a.access, tracker, usage, transport)
	a.console = panel.NewConsole(a.access, tracker, flag, usage, transport)
	a.console.RegisterCompletions(a.engine)
	a.handlers = relaytelegram.NewHandlers(a.engine, a.console, a.access, tracker, usage)

	reg := a.handlers.BuildRegistry()

	opts := coretelegram.RunOptions{
		Config:            &a.cfg.Core,
		Token:             a.token,
		Registry:          reg,
		DispatcherOptions: tgsender.Options{},
		Middlewares:       coretelegram.DefaultMiddlewares(),
		Routes:            a.handlers.Routes(reg),
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			transport.Set(relaytelegram.NewBotTransport(rt.Bot))
			return nil
		},
	}
	return opts, nil
}
