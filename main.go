package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	assistantx "github.com/ascend-travel/assistant/agent/agents/assistant"
	llmx "github.com/ascend-travel/assistant/agent/llm"
	promptx "github.com/ascend-travel/assistant/agent/prompt"
	statex "github.com/ascend-travel/assistant/agent/state"
	toolx "github.com/ascend-travel/assistant/agent/tool"
	amadeusx "github.com/ascend-travel/assistant/pkg/amadeus"
	configx "github.com/ascend-travel/assistant/pkg/config"
	_ "github.com/ascend-travel/assistant/pkg/logger/autoload"
	qstashx "github.com/ascend-travel/assistant/pkg/qstash"
	tavilyx "github.com/ascend-travel/assistant/pkg/tavily"
	serverx "github.com/ascend-travel/assistant/server"
)

type AppConfig struct {
	StoreDriver string `envconfig:"STORE_DRIVER" split_words:"true" default:"memory"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")

	store := newStore(appCfg.StoreDriver)
	catalog := newCatalog()
	gateway := newGateway(ctx, catalog)

	agent, err := assistantx.New(store, gateway, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}

	taskCfg := configx.MustNew[serverx.TaskConfig]("TASK")
	tasks := serverx.NewTaskManager(*taskCfg, agent, newCallbackPublisher(taskCfg.CallbackURL))

	srvCfg := configx.MustNew[serverx.Config]("SERVER")
	srv, err := serverx.New(*srvCfg, agent, tasks)
	if err != nil {
		log.Fatal().Err(err).Msg("build http server")
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}

func newStore(driver string) statex.Store {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		log.Info().Msg("using in-memory state store")
		return statex.NewMemoryStore()
	case "upstash":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build upstash state store")
		}
		return store
	case "postgres":
		cfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		store, err := statex.NewPostgresStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres state store")
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ensure postgres schema")
		}
		return store
	default:
		log.Fatal().Str("driver", driver).Msg("unknown store driver")
		return nil
	}
}

func newCatalog() *toolx.Registry {
	tavilyCfg := configx.MustNew[tavilyx.Config]("TAVILY")
	search, err := tavilyx.NewClient(*tavilyCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build tavily client")
	}

	amadeusCfg := configx.MustNew[amadeusx.Config]("AMADEUS")
	flights, err := amadeusx.NewClient(*amadeusCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build amadeus client")
	}

	return toolx.NewRegistry(search, flights)
}

func newGateway(ctx context.Context, catalog *toolx.Registry) *llmx.Gateway {
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	routerCfg := llmCfg.OpenRouterFor(llmx.RoleRouter)
	routerModel, err := routerCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build router model")
	}
	extractorCfg := llmCfg.OpenRouterFor(llmx.RoleExtractor)
	extractModel, err := extractorCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build extractor model")
	}
	summarizerCfg := llmCfg.OpenRouterFor(llmx.RoleSummarizer)
	summaryModel, err := summarizerCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build summarizer model")
	}

	gateway, err := llmx.NewGateway(ctx, routerModel, extractModel, summaryModel, catalog.Infos(), promptx.Load())
	if err != nil {
		log.Fatal().Err(err).Msg("build model gateway")
	}
	return gateway
}

func newCallbackPublisher(callbackURL string) serverx.CallbackPublisher {
	if strings.TrimSpace(callbackURL) == "" {
		return nil
	}
	cfg := configx.MustNew[qstashx.Config]("QSTASH")
	return qstashx.MustNew(*cfg)
}
