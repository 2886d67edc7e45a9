package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bond-lifecycle-demo/internal/alerting"
	"bond-lifecycle-demo/internal/config"
	"bond-lifecycle-demo/internal/engine"
	"bond-lifecycle-demo/internal/oracle"
	"bond-lifecycle-demo/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newEngineClient() *engine.Client {
	return engine.New(engine.Options{
		BaseURL:   a.Config.Engine.BaseURL,
		Timeout:   a.Config.Engine.RequestTimeout,
		UserAgent: a.Config.Engine.UserAgent,
	}, a.Logger)
}

func (a *App) newOracle() oracle.PriceFetcher {
	if a.Config.Oracle.Source == config.OracleSourceChain {
		return oracle.NewChainFeed(oracle.ChainFeedOptions{
			RPCURL:            a.Config.Oracle.RPCURL,
			AggregatorAddress: a.Config.Oracle.AggregatorAddress,
			Decimals:          a.Config.Oracle.Decimals,
			Currency:          a.Config.Oracle.Currency,
			ChainLabel:        a.Config.Oracle.ChainLabel,
			Timeout:           a.Config.Oracle.RequestTimeout,
		}, a.Logger)
	}

	return oracle.NewEngineFeed(oracle.EngineFeedOptions{
		BaseURL:   a.Config.Engine.BaseURL,
		Timeout:   a.Config.Oracle.RequestTimeout,
		UserAgent: a.Config.Engine.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// DemoOptions configure the scripted lifecycle run.
type DemoOptions struct {
	Pause time.Duration
	Steps []string
}

// ExportOptions hold parameters for exporting observed prices.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// SimulateOptions configure the offline simulation run.
type SimulateOptions struct {
	Price float64
	Pause time.Duration
}
