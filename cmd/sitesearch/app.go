package main

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/config"
	dbredis "github.com/kailas-cloud/sitesearch/internal/db/redis"
	"github.com/kailas-cloud/sitesearch/internal/db/sqlstore"
	"github.com/kailas-cloud/sitesearch/internal/domain/search/request"
	domsrc "github.com/kailas-cloud/sitesearch/internal/domain/source"
	logpkg "github.com/kailas-cloud/sitesearch/internal/logger"
	"github.com/kailas-cloud/sitesearch/internal/metrics"
	"github.com/kailas-cloud/sitesearch/internal/repository/attrcache"
	attrrepo "github.com/kailas-cloud/sitesearch/internal/repository/attribute"
	"github.com/kailas-cloud/sitesearch/internal/repository/policy"
	"github.com/kailas-cloud/sitesearch/internal/repository/render"
	"github.com/kailas-cloud/sitesearch/internal/repository/scope"
	srcrepo "github.com/kailas-cloud/sitesearch/internal/repository/source"
	healthuc "github.com/kailas-cloud/sitesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/sitesearch/internal/usecase/search"
)

// app is the composition root shared by all commands.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *sqlstore.Store
	cache  *dbredis.Store
	pool   *ants.Pool
	search *searchuc.Service
	health *healthuc.Service
}

// newApp loads configuration, connects the stores and assembles the search
// service. migrate creates missing tables before the service is built.
func newApp(ctx context.Context, env string, migrate bool) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}

	if err := a.openStore(ctx, migrate); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildSearch(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var cache healthuc.CachePinger
	if a.cache != nil {
		cache = a.cache
	}
	a.health = healthuc.New(a.store, cache)
	return a, nil
}

func (a *app) openStore(ctx context.Context, migrate bool) error {
	dbCfg := a.cfg.Database
	store, err := sqlstore.Open(sqlstore.Config{
		Driver:       dbCfg.Driver,
		DSN:          dbCfg.DSN,
		TablePrefix:  dbCfg.TablePrefix,
		MaxOpenConns: dbCfg.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	a.store = store

	if err := store.WaitForReady(ctx, time.Duration(dbCfg.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("content store not ready: %w", err)
	}
	a.logger.Info("Connected to content store",
		zap.String("driver", dbCfg.Driver),
		zap.String("table_prefix", dbCfg.TablePrefix),
	)

	if migrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.logger.Info("Schema migrated")
	}
	return nil
}

func (a *app) openCache(ctx context.Context) error {
	cacheCfg := a.cfg.Cache
	if !cacheCfg.Enabled() {
		return nil
	}
	cache, err := dbredis.NewStore(dbredis.Config{
		Addrs:     cacheCfg.Addrs,
		Username:  cacheCfg.Username,
		Password:  cacheCfg.Password,
		DB:        cacheCfg.DB,
		KeyPrefix: cacheCfg.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("create attribute cache: %w", err)
	}
	a.cache = cache

	if err := cache.WaitForReady(ctx, time.Duration(a.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("attribute cache not ready: %w", err)
	}
	a.logger.Info("Connected to attribute cache", zap.Strings("addrs", cacheCfg.Addrs))
	return nil
}

func (a *app) buildSearch(ctx context.Context) error {
	searchCfg := a.cfg.Search
	metrics.RegisterSearchMetrics()

	var attrs searchuc.AttributeRepository = attrrepo.New(a.store)
	if a.cache != nil {
		attrs = attrcache.New(attrs, a.cache,
			time.Duration(a.cfg.Cache.TTLSec)*time.Second, metrics.AttributeCacheTotal, a.logger)
	}

	registry := srcrepo.NewRegistry(domsrc.Paths{
		Core:   a.cfg.Paths.Core,
		Assets: a.cfg.Paths.Assets,
		Base:   a.cfg.Paths.Base,
	}, a.logger)
	for _, sc := range a.cfg.Sources {
		src, err := domsrc.New(sc.Class, sc.Table, sc.Package)
		if err != nil {
			return fmt.Errorf("source %q: %w", sc.Class, err)
		}
		registry.Register(src)
	}

	pool, err := ants.NewPool(searchCfg.ScoringWorkers)
	if err != nil {
		return fmt.Errorf("create scoring pool: %w", err)
	}
	a.pool = pool

	var visibility searchuc.VisibilityChecker = policy.AllowAll{}
	if searchCfg.ResourceGroups {
		visibility = policy.NewResourceGroups(a.store)
	}

	defaults := maps.Clone(searchCfg.Defaults)
	if _, ok := defaults[request.KeyOffsetIndex]; !ok {
		defaults[request.KeyOffsetIndex] = searchCfg.OffsetParam
	}

	tables := searchuc.Tables{
		Content:         a.store.Table(sqlstore.TableContent),
		AttributeValues: a.store.Table(sqlstore.TableAttrValues),
	}
	a.search = searchuc.New(a.store, attrs, tables, a.logger).
		WithSources(registry).
		WithScope(scope.New(a.store)).
		WithPolicy(visibility).
		WithRenderer(render.New(searchCfg.ImageBaseURL, searchCfg.DateLayout)).
		WithScorer(searchuc.NewScorer(pool, searchCfg.ParallelThreshold)).
		WithContext(searchCfg.Context).
		WithDefaults(defaults)

	if err := a.search.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize search: %w", err)
	}
	return nil
}

// Close releases every resource newApp acquired.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
