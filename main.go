package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/capability"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/catalog"
	contractx "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/contract"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/oracle"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/orchestrator"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/registry"
	statex "github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/state"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/agent/voice"
	"github.com/Anirban-001/AI-Voice-Retail-Assistant/api"
	configx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/config"
	deepgramx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/deepgram"
	groqx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/groq"
	_ "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger/autoload"
	qstashx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/qstash"
)

type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

type AssistantConfig struct {
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" split_words:"true" default:"en"`
	MaxHistory      int    `envconfig:"MAX_HISTORY" split_words:"true" default:"20"`
}

func main() {
	consoleMode := flag.Bool("console", false, "run the interactive console instead of the HTTP server")

	groqCfg := configx.MustNew[groqx.Config]("GROQ")
	groqClient := groqx.MustNew(*groqCfg)
	llmOracle := oracle.New(groqClient)

	assistantCfg := configx.MustNew[AssistantConfig]("ASSISTANT")

	catalogStore := buildCatalogStore()
	sessionStore := buildSessionStore()
	publisher := buildPublisher()
	gateway := capability.NewMockGateway(nil)

	reg := registry.New()
	reg.Register(capability.NewRecommendation(catalogStore, llmOracle))
	reg.Register(capability.NewInventory(catalogStore, llmOracle, publisher))
	reg.Register(capability.NewPayment(catalogStore, llmOracle, gateway, publisher))

	orch, err := orchestrator.New(sessionStore, llmOracle, reg, orchestrator.Config{
		DefaultLanguage: assistantCfg.DefaultLanguage,
		MaxHistory:      assistantCfg.MaxHistory,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	if *consoleMode {
		runConsole(orch)
		return
	}

	transducer, streamer := buildTransducer()
	voiceManager, err := voice.NewManager(orch, transducer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build voice manager")
	}

	handler := api.NewHandler(orch, sessionStore, catalogStore, voiceManager, streamer)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	handler.RegisterRoutes(e)

	serverCfg := configx.MustNew[ServerConfig]("SERVER")
	go func() {
		log.Info().Str("addr", serverCfg.Addr).Msg("starting API server")
		if err := e.Start(serverCfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildCatalogStore uses Postgres when a DSN is configured and falls back
// to the seeded in-memory catalog otherwise.
func buildCatalogStore() catalog.Store {
	cfg, err := configx.New[catalog.Config]("CATALOG")
	if err == nil {
		store, berr := catalog.NewBunStore(*cfg)
		if berr == nil {
			log.Info().Msg("using postgres catalog store")
			return store
		}
		log.Warn().Err(berr).Msg("postgres catalog unavailable, using in-memory store")
	} else {
		log.Info().Msg("catalog dsn not configured, using in-memory store")
	}

	store := catalog.NewMemoryStore()
	catalog.SeedDemo(store)
	return store
}

// buildSessionStore prefers Upstash Redis and falls back to process
// memory, which loses sessions on restart.
func buildSessionStore() statex.Store {
	cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH")
	if err == nil {
		store, serr := statex.NewUpstashRedisStore(*cfg)
		if serr == nil {
			log.Info().Msg("using upstash session store")
			return store
		}
		log.Warn().Err(serr).Msg("upstash unavailable, using in-memory session store")
	} else {
		log.Info().Msg("upstash not configured, using in-memory session store")
	}
	return statex.NewMemoryStore()
}

// buildPublisher returns nil when QStash is not configured; event
// publishing is then skipped.
func buildPublisher() contractx.Publisher {
	cfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		log.Info().Msg("qstash not configured, domain events disabled")
		return nil
	}
	client, cerr := qstashx.NewClient(*cfg)
	if cerr != nil {
		log.Warn().Err(cerr).Msg("qstash client unavailable, domain events disabled")
		return nil
	}
	return client
}

// buildTransducer returns nil values when Deepgram is not configured;
// the voice channel then serves text turns only and the streaming socket
// answers 503.
func buildTransducer() (contractx.Transducer, contractx.StreamingTransducer) {
	cfg, err := configx.New[deepgramx.Config]("DEEPGRAM")
	if err != nil {
		log.Info().Msg("deepgram not configured, voice audio disabled")
		return nil, nil
	}
	client, cerr := deepgramx.NewClient(*cfg)
	if cerr != nil {
		log.Warn().Err(cerr).Msg("deepgram client unavailable, voice audio disabled")
		return nil, nil
	}
	return voice.NewDeepgramTransducer(client), client
}

// runConsole is a stdin loop against the orchestrator, useful for local
// testing without an HTTP client.
func runConsole(orch *orchestrator.Orchestrator) {
	sessionID := uuid.NewString()
	fmt.Println("Interactive console. Type a message, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" || input == "q" {
			fmt.Println("Goodbye!")
			break
		}

		response, session, err := orch.Process(context.Background(), sessionID, "console_user", "console", input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("\nAssistant: %s\n", response.Message)
		if session != nil {
			fmt.Printf("  [language=%s mood=%s cart_items=%d]\n", session.Language, session.Mood, session.CartItemCount())
		}
	}
}
