package main

import (
	"context"
	"fmt"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/viper"

	"github.com/hupe1980/tripsession"
	"github.com/hupe1980/tripsession/config"
	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/logging"
	"github.com/hupe1980/tripsession/model"
	"github.com/hupe1980/tripsession/model/anthropic"
	"github.com/hupe1980/tripsession/model/gemini"
	"github.com/hupe1980/tripsession/model/openai"
	"github.com/hupe1980/tripsession/session"
)

// app holds the resources shared by all subcommands.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger logging.Logger
	store  core.SessionStore
	closer func() error
}

func (a *app) init(_ context.Context) error {
	if err := loadEnvFile(a.v.GetString("env-file")); err != nil {
		return err
	}

	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	a.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	a.logger = logger

	switch cfg.Store.Driver {
	case "sqlite":
		s, err := session.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		a.store, a.closer = s, s.Close
	default:
		a.store = session.NewInMemoryStore()
	}

	a.logger.Debug("Configuration loaded", "provider", cfg.Model.Provider, "store", cfg.Store.Driver, "window", cfg.Session.Window)
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

func (a *app) applyOverrides(cfg *config.Config) {
	if a.v.IsSet("log-level") {
		cfg.Logging.Level = a.v.GetString("log-level")
	}
	if a.v.IsSet("log-format") {
		cfg.Logging.Format = a.v.GetString("log-format")
	}
	if a.v.IsSet("provider") && a.v.GetString("provider") != cfg.Model.Provider {
		cfg.Model.Provider = a.v.GetString("provider")
		cfg.Model.Name = ""
	}
	if a.v.IsSet("model") {
		cfg.Model.Name = a.v.GetString("model")
	}
	if a.v.IsSet("store") {
		cfg.Store.Driver = a.v.GetString("store")
	}
	if a.v.IsSet("db") {
		cfg.Store.Path = a.v.GetString("db")
		if !a.v.IsSet("store") {
			cfg.Store.Driver = "sqlite"
		}
	}
	if a.v.IsSet("render-style") {
		cfg.Render.Style = a.v.GetString("render-style")
	}
	if a.v.IsSet("window") {
		cfg.Session.Window = a.v.GetInt("window")
	}
}

func newLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	switch cfg.Format {
	case "json", "text":
		return logging.NewLogger(&logging.LoggerConfig{
			Level:     level,
			Format:    cfg.Format,
			Output:    os.Stderr,
			Component: "tripchat",
		}), nil
	default:
		return logging.NewCharmAdapter(os.Stderr, level, "tripchat"), nil
	}
}

// manager creates a façade for id using the configured session settings.
func (a *app) manager(id string, optFns ...func(o *tripsession.Options)) (*tripsession.Manager, error) {
	fns := append([]func(o *tripsession.Options){func(o *tripsession.Options) {
		o.Window = a.cfg.Session.Window
		o.Separator = a.cfg.Session.Separator
		o.Ingestion = tripsession.Ingestion{Structured: a.cfg.Session.Structured, Replay: a.cfg.Session.Replay}
		o.Store = a.store
		o.Logger = a.logger
		o.ID = id
	}}, optFns...)
	return tripsession.New(fns...)
}

func (a *app) model(ctx context.Context) (model.Model, error) {
	mc := a.cfg.Model
	switch mc.Provider {
	case "gemini":
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.APIKey = firstNonEmpty(mc.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
			o.Temperature = float32(mc.Temperature)
			if mc.MaxTokens > 0 {
				o.MaxOutputTokens = int32(mc.MaxTokens)
			}
		})
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			o.APIKey = firstNonEmpty(mc.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxTokens = int64(mc.MaxTokens)
			}
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.APIKey = firstNonEmpty(mc.APIKey, os.Getenv("OPENAI_API_KEY"))
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(mc.MaxTokens)
			}
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}

func (a *app) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Model.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Model.Timeout)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatTime(t time.Time) string { return t.Local().Format("2006-01-02 15:04") }
