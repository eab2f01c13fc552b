package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"kadig/internal/cache"
	"kadig/internal/config"
	"kadig/internal/database"
	"kadig/internal/marketdata"
	"kadig/internal/service"
)

// App bundles the wired dependencies shared by the binaries.
type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	DB        *sqlx.DB
	Repo      *database.Repo
	Refresher *service.Refresher

	closers []func() error
}

// NewLogger builds a logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

// Providers builds the three market data adapters in equity, crypto,
// currency order.
func Providers(cfg *config.Config, log *logrus.Logger) []marketdata.Provider {
	common := []marketdata.Option{
		marketdata.WithTimeout(cfg.MarketDataTimeout),
		marketdata.WithRateLimit(cfg.MarketDataRateLimit),
		marketdata.WithLogger(log),
	}
	with := func(baseURL string) []marketdata.Option {
		return append([]marketdata.Option{marketdata.WithBaseURL(baseURL)}, common...)
	}
	return []marketdata.Provider{
		marketdata.NewEquityAdapter(cfg.Brapi.Token, cfg.Brapi.BatchSize, with(cfg.Brapi.BaseURL)...),
		marketdata.NewCryptoAdapter(cfg.CoinGecko.APIKey, with(cfg.CoinGecko.BaseURL)...),
		marketdata.NewCurrencyAdapter(with(cfg.Awesome.BaseURL)...),
	}
}

// PriceCache returns a Redis cache when REDIS_URL is set and an in-process
// one otherwise. A nil cache means caching is off.
func PriceCache(cfg *config.Config) (cache.PriceCache, func() error, error) {
	if cfg.RefreshCacheTTL <= 0 {
		return nil, func() error { return nil }, nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, cfg.RefreshCacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, rc.Close, nil
	}
	return cache.NewMemory(cfg.RefreshCacheTTL), func() error { return nil }, nil
}

// New connects to Postgres and wires the refresh pipeline from cfg.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := OpenDB(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	a := &App{Config: cfg, Log: log, DB: db, closers: []func() error{db.Close}}

	priceCache, closeCache, err := PriceCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeCache)

	a.Repo = database.New(db, log)
	opts := []service.RefresherOption{service.WithWriteConcurrency(cfg.RefreshWriteConcurrency)}
	if priceCache != nil {
		opts = append(opts, service.WithCache(priceCache))
	}
	a.Refresher = service.NewRefresher(a.Repo, a.Repo, Providers(cfg, log), log, opts...)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warnf("close: %v", err)
		}
	}
}
