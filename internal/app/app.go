// Package app wires configuration into the gateway, session store, reconciler and catalog.
// Both binaries build their dependencies here, once per process.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/storefront"
)

// Demo catalog size.
const (
	demoProducts    = 60
	demoCollections = 6
)

// App holds the per-process dependencies.
type App struct {
	Gateway gateway.Gateway
	Catalog *catalog.Service
	Cart    *cart.Reconciler

	redis *redis.Client
}

// New builds the gateway and session store selected by cfg and wires the reconciler
// and catalog service over them. The cart is not initialized yet; call Cart.Initialize.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	gw, err := NewGateway(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gateway: %w", err)
	}

	a := &App{Gateway: gw}
	kv, err := a.sessionKV(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	a.Cart = cart.New(gw, session.NewStore(kv, logger), cart.Options{
		PageSize: cfg.PageSizes.CartLines,
		Logger:   logger.With(slog.String("component", "cart")),
		OnPublish: func(c model.Cart) {
			logger.Debug("cart published",
				slog.String("cart_id", c.Session.ID),
				slog.Int("lines", len(c.Lines)),
				slog.Int("total_quantity", c.Session.TotalQuantity),
			)
		},
	})
	a.Catalog = catalog.NewService(gw, catalog.Options{
		PageSizes: catalog.PageSizes{
			Products:           cfg.PageSizes.Products,
			Collections:        cfg.PageSizes.Collections,
			CollectionProducts: cfg.PageSizes.CollectionProducts,
			Variants:           cfg.PageSizes.Variants,
			Search:             cfg.PageSizes.Search,
		},
		MaxItems:      cfg.MaxItems,
		PredictiveMax: cfg.PredictiveMax,
		Logger:        logger.With(slog.String("component", "catalog")),
	})
	return a, nil
}

// NewGateway returns the Storefront API gateway, or a generated in-memory store in demo mode.
func NewGateway(cfg *config.Config, logger *slog.Logger) (gateway.Gateway, error) {
	if cfg.Demo {
		return gateway.NewDemoFake(demoProducts, demoCollections), nil
	}
	gw, err := storefront.New(storefront.Config{
		StoreDomain: cfg.Store.Domain,
		APIVersion:  cfg.Store.APIVersion,
		AccessToken: cfg.Store.StorefrontToken,
		UserAgent:   cfg.UserAgent(),
		Logger:      logger.With(slog.String("component", "storefront")),
	})
	if err != nil {
		return nil, err
	}
	return gw, nil
}

// sessionKV opens the configured key-value backend.
func (a *App) sessionKV(ctx context.Context, cfg *config.Config) (session.KV, error) {
	switch cfg.Session.Backend {
	case "file":
		kv, err := session.NewFileKV(cfg.Session.Dir)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "redis":
		a.redis = session.NewRedisClient(cfg.Session.RedisAddr,
			session.WithPassword(cfg.Session.RedisPassword),
			session.WithDB(cfg.Session.RedisDB),
		)
		kv := session.NewRedisKV(a.redis, cfg.Session.KeyPrefix, cfg.Session.TTL)
		if err := kv.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return kv, nil
	default:
		return session.NewMemoryKV(), nil
	}
}

// Close releases the Redis connection pool, if any.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}
