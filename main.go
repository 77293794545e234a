package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/fitlead/fitlead/agent/agents/orchestrator"
	responderx "github.com/fitlead/fitlead/agent/agents/responder"
	contractx "github.com/fitlead/fitlead/agent/contract"
	intentx "github.com/fitlead/fitlead/agent/intent"
	leadx "github.com/fitlead/fitlead/agent/lead"
	llmx "github.com/fitlead/fitlead/agent/llm"
	memoryx "github.com/fitlead/fitlead/agent/memory"
	promptx "github.com/fitlead/fitlead/agent/prompt"
	toolx "github.com/fitlead/fitlead/agent/tool"
	calendlyx "github.com/fitlead/fitlead/pkg/calendly"
	configx "github.com/fitlead/fitlead/pkg/config"
	_ "github.com/fitlead/fitlead/pkg/logger/autoload"
	openrouterx "github.com/fitlead/fitlead/pkg/openrouter"
	serverx "github.com/fitlead/fitlead/server"
)

// SessionConfig controls idle-session eviction.
type SessionConfig struct {
	MaxIdle       time.Duration `envconfig:"MAX_IDLE" split_words:"true" default:"2h"`
	EvictSchedule string        `envconfig:"EVICT_SCHEDULE" split_words:"true" default:"@every 10m"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	store := mustOpenStore(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("lead store close failed")
		}
	}()

	calendlyCfg := configx.MustNew[calendlyx.Config]("CALENDLY")
	scheduler, err := calendlyx.NewClient(*calendlyCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("calendly client init failed")
	}

	gymCfg := configx.MustNew[toolx.GymConfig]("GYM")
	prompts := promptx.LoadPromptSet()

	orchestrator, err := buildOrchestrator(ctx, *llmCfg, prompts, store, scheduler, *gymCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	sessionCfg := configx.MustNew[SessionConfig]("SESSION")
	scheduler2 := cron.New()
	if _, err := scheduler2.AddFunc(sessionCfg.EvictSchedule, func() {
		orchestrator.EvictIdleSessions(sessionCfg.MaxIdle)
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", sessionCfg.EvictSchedule).Msg("invalid eviction schedule")
	}
	scheduler2.Start()
	defer scheduler2.Stop()

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	srv, err := serverx.New(*serverCfg, orchestrator, store, scheduler, providerProbe(*llmCfg))
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}

func mustOpenStore(ctx context.Context) leadx.Store {
	storeCfg := configx.MustNew[leadx.StoreConfig]("LEADSTORE")

	switch strings.ToLower(strings.TrimSpace(storeCfg.Driver)) {
	case "mongo", "":
		cfg := configx.MustNew[leadx.MongoConfig]("MONGO")
		store, err := leadx.NewMongoStore(ctx, *cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo lead store init failed")
		}
		return store
	case "postgres":
		cfg := configx.MustNew[leadx.PostgresConfig]("POSTGRES")
		store, err := leadx.NewPostgresStore(ctx, *cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres lead store init failed")
		}
		return store
	default:
		log.Fatal().Str("driver", storeCfg.Driver).Msg("unknown lead store driver")
		return nil
	}
}

func buildOrchestrator(
	ctx context.Context,
	llmCfg llmx.Config,
	prompts promptx.PromptSet,
	store leadx.Store,
	scheduler contractx.SchedulingGateway,
	gymCfg toolx.GymConfig,
) (*orchestratorx.Orchestrator, error) {
	classifierCfg := llmCfg.OpenRouterFor(contractx.AgentTypeClassifier)
	classifierModel, err := classifierCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("build classifier model: %w", err)
	}
	classifier, err := intentx.New(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	memoryCfg := llmCfg.OpenRouterFor(contractx.AgentTypeMemory)
	memoryModel, err := memoryCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("build memory model: %w", err)
	}
	manager, err := memoryx.New(ctx, memoryModel, prompts.Memory)
	if err != nil {
		return nil, fmt.Errorf("build memory manager: %w", err)
	}

	responderCfg := llmCfg.OpenRouterFor(contractx.AgentTypeResponder)
	responderModel, err := responderCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("build responder model: %w", err)
	}
	executor := toolx.NewExecutor(scheduler, gymCfg)
	responder, err := responderx.New(ctx, responderModel, prompts.Persona, executor)
	if err != nil {
		return nil, fmt.Errorf("build responder: %w", err)
	}

	return orchestratorx.New(store, classifier, responder, manager)
}

// providerProbe reports LLM provider reachability by listing models.
func providerProbe(llmCfg llmx.Config) serverx.ProviderProbe {
	client := openrouterx.NewClient(openrouterx.Config{
		BaseURL:  llmCfg.BaseURL,
		APIKey:   llmCfg.APIKey,
		SiteURL:  llmCfg.SiteURL,
		SiteName: llmCfg.SiteName,
	})
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, err := client.Models.List(probeCtx)
		return err
	}
}
