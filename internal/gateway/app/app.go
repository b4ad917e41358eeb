package app

import (
	"context"
	"fmt"
	"log"

	"prism/internal/gateway/config"
	"prism/internal/gateway/handler"
	"prism/internal/gateway/handler/rpc"
	"prism/internal/gateway/server"
	chatsvc "prism/internal/gateway/service/chat"
	"prism/internal/llm"
	"prism/internal/perspective"
	"prism/internal/pipeline"
	"prism/internal/ratelimit"
	"prism/internal/strategy"
)

type App struct {
	server  *server.Server
	stores  *gatewayStores
	catalog *llm.Catalog
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg *config.Config) (*App, error) {
	// Dependencies
	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalog(cfg)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	registry, err := NewRegistry(cfg)
	if err != nil {
		_ = stores.Close()
		_ = catalog.Close()
		return nil, err
	}

	orch := pipeline.New(catalog,
		pipeline.WithRegistry(registry),
		pipeline.WithSelector(strategy.Default().WithDelays(cfg.Pipeline.Delay, cfg.Pipeline.HeavyDelay)),
		pipeline.WithMessageSaver(stores.message),
		pipeline.WithTraceStore(stores.trace),
		pipeline.WithTemperature(cfg.Pipeline.Temperature),
		pipeline.WithMaxParallel(cfg.Pipeline.MaxParallel),
	)
	chatSvc := chatsvc.New(orch, catalog, stores.message,
		chatsvc.WithDefaultModel(cfg.DefaultModel),
		chatsvc.WithLimiter(ratelimit.NewSlidingWindow(cfg.RateLimit.Limit, cfg.RateLimit.Window)),
	)

	prismHandler := rpc.NewPrismHandler(chatSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	messageHandler := handler.NewMessageHandler(chatSvc)

	// Routing & Server
	mux := server.NewMux(prismHandler, chatHandler, messageHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server:  srv,
		stores:  stores,
		catalog: catalog,
	}, nil
}

// NewCatalog registers the known provider models, plus the offline fake
// model when enabled.
func NewCatalog(cfg *config.Config) (*llm.Catalog, error) {
	catalog := llm.NewCatalog(llm.WithLogging(log.Default()))
	if err := llm.RegisterDefaultModels(catalog); err != nil {
		return nil, fmt.Errorf("register models: %w", err)
	}
	if cfg.EnableFakeModel {
		if err := llm.RegisterFakeModel(catalog, llm.NewFakeClient()); err != nil {
			return nil, fmt.Errorf("register fake model: %w", err)
		}
	}
	return catalog, nil
}

// NewRegistry returns the built-in perspective sets, overridden by the YAML
// file named in the configuration.
func NewRegistry(cfg *config.Config) (*perspective.Registry, error) {
	if cfg.PerspectivesPath == "" {
		return perspective.Default(), nil
	}
	reg, err := perspective.LoadYAML(perspective.Default(), cfg.PerspectivesPath)
	if err != nil {
		return nil, fmt.Errorf("load perspectives: %w", err)
	}
	log.Printf("perspectives: loaded overrides from %s", cfg.PerspectivesPath)
	return reg, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.catalog.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := a.stores.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
