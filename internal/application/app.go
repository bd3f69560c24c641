// Package application wires configuration into the pipeline, run history
// and stage logs shared by the web server and the command line tool.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/cleanse/internal/admin"
	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/core"
	db "github.com/JonMunkholm/cleanse/internal/database"
	"github.com/JonMunkholm/cleanse/internal/llm"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

// App holds the long-lived dependencies built from a Config.
type App struct {
	Config   *config.Config
	Pipeline *core.Pipeline
	History  core.HistoryStore
	Logs     logging.StageLogs

	pool *pgxpool.Pool
}

// Open loads the country reference, connects run history and places the
// stage logs. Close releases the database pool, if any.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	p, err := NewPipeline(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Pipeline: p,
		History:  core.NewMemoryHistory(),
		Logs:     logging.NewStageLogs(cfg.Pipeline.LogDir),
	}

	if cfg.Database.Enabled() {
		pool, err := Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		app.pool = pool
		app.History = db.NewHistoryStore(pool)
	}

	return app, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Resetter returns the maintenance reset for this app's logs and history.
func (a *App) Resetter() *admin.Reset {
	r := &admin.Reset{Logs: a.Logs}
	if h, ok := a.History.(admin.HistoryResetter); ok {
		r.History = h
	}
	return r
}

// NewPipeline builds the cleaning pipeline from the pipeline settings,
// attaching the Azure OpenAI email suggester when it is configured.
func NewPipeline(cfg *config.Config) (*core.Pipeline, error) {
	opts := core.PipelineOptions{
		Threshold:   cfg.Pipeline.MatchThreshold,
		EmailDomain: cfg.Pipeline.EmailDomain,
	}

	if cfg.LLM.Enabled() {
		client, err := llm.NewAzureClient(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Deployment)
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		opts.Suggester = llm.NewSuggester(client, cfg.Pipeline.EmailDomain, cfg.LLM.Timeout)
		slog.Info("email suggestions enabled", "deployment", cfg.LLM.Deployment)
	}

	p, err := core.LoadPipeline(cfg.Pipeline.CountriesFile, cfg.Pipeline.AliasesFile, opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("country reference loaded",
		"countries", p.Countries().Len(),
		"threshold", p.Threshold(),
	)
	return p, nil
}

// Connect opens and pings a pgx pool sized from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
