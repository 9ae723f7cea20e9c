package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/artifacts"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/config"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/llm"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/metrics"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/notify"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/research"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/runs"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/search"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		provider, err := metrics.Init(ctx, metrics.Config{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Metrics.Endpoint,
			Insecure:       cfg.Metrics.Insecure,
		})
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutCtx); err != nil {
				log.Warn("metrics shutdown failed", logger.ErrorFields("shutdown", err))
			}
		}()
	}

	bus := events.NewBus(cfg.Events.SubscriberBuffer)
	registry := runs.NewRegistry()
	client := httpclient.New(httpclient.Config{Timeout: 20 * time.Second})

	chain := search.NewChain(cfg.Search.PreferLang, buildProviders(cfg.Search, client)...)
	groq := llm.NewGroq(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
	if !groq.Enabled() {
		log.Warn("GROQ_API_KEY not set, running with template-based text generation")
	}

	store, err := artifacts.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("init artifact store: %w", err)
	}
	webhook := notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Secret)
	if !webhook.Configured() {
		log.Info("webhook not configured, notify steps will be skipped")
	}

	stages := research.NewStages(bus, groq, cfg.LLM.GroqModel, chain, cfg.Search.Provider, store, webhook)
	var engineOpts []research.EngineOption
	if cfg.Pipeline.PaceMS > 0 {
		engineOpts = append(engineOpts, research.WithPace(time.Duration(cfg.Pipeline.PaceMS)*time.Millisecond))
	}
	engine := research.NewEngine(bus, registry, stages.All(), engineOpts...)

	srv := server.New(cfg.Server, logger.WithComponent("server"))
	srv.ApplyMiddleware()

	api := &server.API{
		Version:   cfg.Version,
		Model:     cfg.LLM.GroqModel,
		Provider:  cfg.Search.Provider,
		KeepAlive: time.Duration(cfg.Events.KeepAliveSeconds) * time.Second,
		Bus:       bus,
		Registry:  registry,
		Engine:    engine,
		Stages:    stages,
		Artifacts: store,
		Webhook:   webhook,
	}
	api.Register(srv.Engine())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info("research orchestrator started", logger.Fields(
		"addr", srv.Addr(),
		"search_provider", cfg.Search.Provider,
		"model", cfg.LLM.GroqModel,
	))

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}

// buildProviders assembles the fallback order. The configured provider goes
// first, any other keyed provider next, and the keyless scraper is always the
// last resort.
func buildProviders(cfg config.SearchConfig, client *httpclient.Client) []search.Provider {
	var keyed []search.Provider
	if cfg.TavilyAPIKey != "" {
		keyed = append(keyed, search.NewTavily(cfg.TavilyAPIKey, client))
	}
	if cfg.SerpAPIAPIKey != "" {
		keyed = append(keyed, search.NewSerpAPI(cfg.SerpAPIAPIKey, client))
	}

	ordered := make([]search.Provider, 0, len(keyed)+1)
	for _, p := range keyed {
		if p.Name() == cfg.Provider {
			ordered = append(ordered, p)
		}
	}
	for _, p := range keyed {
		if p.Name() != cfg.Provider {
			ordered = append(ordered, p)
		}
	}
	return append(ordered, search.NewDuckDuckGo(client))
}
