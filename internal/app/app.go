// Package app wires the catalog, its oracles and the optimizer from a loaded
// configuration. It is shared by the command line tool and the API server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/price-optimizer/internal/catalog"
	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/iwvelando/price-optimizer/internal/metrics"
	"github.com/iwvelando/price-optimizer/internal/optimizer"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the services built from one configuration.
type App struct {
	Logger    *zap.Logger
	Config    *config.Configuration
	Catalog   *catalog.Catalog
	Converter catalog.Converter
	Runner    *optimizer.Runner
	Metrics   *metrics.Recorder
	rdb       *redis.Client
}

// New loads the catalog and builds the runner. When Redis is configured but
// unreachable the catalog answers cost lookups directly. recorder may be nil.
func New(ctx context.Context, logger *zap.Logger, conf *config.Configuration, recorder *metrics.Recorder) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	conf.Normalize()

	cat, err := catalog.Load(logger, conf.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	a := &App{
		Logger:    logger,
		Config:    conf,
		Catalog:   cat,
		Converter: catalog.NewConverter(conf.Catalog.Currency, conf.Catalog.ExchangeRate),
		Metrics:   recorder,
	}

	var costs optimizer.CostOracle = cat
	if conf.Catalog.Redis.Enabled() {
		rdb, err := catalog.NewRedisClient(ctx, conf.Catalog.Redis)
		if err != nil {
			logger.Warn("cost cache unavailable, using catalog costs",
				zap.String("op", "app.New"),
				zap.String("addr", conf.Catalog.Redis.Addr),
				zap.Error(err),
			)
		} else {
			a.rdb = rdb
			ttl := time.Duration(conf.Catalog.Redis.TTLSeconds) * time.Second
			costs = catalog.NewRedisCostCache(logger, rdb, cat, ttl)
			logger.Info("cost cache connected",
				zap.String("op", "app.New"),
				zap.String("addr", conf.Catalog.Redis.Addr),
				zap.Duration("ttl", ttl),
			)
		}
	}

	opts := []optimizer.Option{
		optimizer.WithCostOracle(costs),
		optimizer.WithDemandOracle(catalog.NewRollingDemand(cat, catalog.DefaultDemandWindow)),
		optimizer.WithPriceOracle(cat),
		optimizer.WithDisplayCurrency(a.Converter.Code, a.Converter.Rate),
	}
	if recorder != nil {
		opts = append(opts, optimizer.WithObserver(recorder))
	}
	runner, err := optimizer.NewRunner(logger, conf.Pricing, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Runner = runner
	return a, nil
}

// Run optimizes every configured request. Request prices and results are in
// display currency.
func (a *App) Run(ctx context.Context) ([]optimization.Result, error) {
	requests := make([]optimization.DemandContext, len(a.Config.Requests))
	for i, request := range a.Config.Requests {
		requests[i] = a.Converter.ContextToBase(request)
	}

	results, err := a.Runner.OptimizeBatch(ctx, requests)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i] = a.Converter.Result(results[i])
	}
	return results, nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() {
	if a.rdb == nil {
		return
	}
	if err := a.rdb.Close(); err != nil {
		a.Logger.Warn("failed to close redis client",
			zap.String("op", "app.Close"),
			zap.Error(err),
		)
	}
	a.rdb = nil
}
