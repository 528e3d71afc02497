package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v9"

	"github.com/dskvich/memi-chat/pkg/api"
	"github.com/dskvich/memi-chat/pkg/auth"
	"github.com/dskvich/memi-chat/pkg/database"
	"github.com/dskvich/memi-chat/pkg/gemini"
	"github.com/dskvich/memi-chat/pkg/logger"
	"github.com/dskvich/memi-chat/pkg/openai"
	"github.com/dskvich/memi-chat/pkg/repository"
	"github.com/dskvich/memi-chat/pkg/services"
	"github.com/dskvich/memi-chat/pkg/workers"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
)

type Config struct {
	ListenAddr    string           `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel      string           `env:"LOG_LEVEL" envDefault:"info"`
	LogNoColor    bool             `env:"LOG_NO_COLOR"`
	APITokens     map[string]int64 `env:"API_TOKENS,required" envSeparator:"," envKeyValSeparator:":"`
	ModelProvider string           `env:"MODEL_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey  string           `env:"GEMINI_API_KEY"`
	GeminiBaseURL string           `env:"GEMINI_BASE_URL"`
	OpenAIToken   string           `env:"OPEN_AI_TOKEN"`
	OpenAIBaseURL string           `env:"OPEN_AI_BASE_URL"`
	PgURL         string           `env:"DATABASE_URL"`
	PgHost        string           `env:"DB_HOST" envDefault:"localhost:65432"`

	ChatModel      string `env:"CHAT_MODEL" envDefault:"gemini-2.0-flash"`
	TitleModel     string `env:"TITLE_MODEL" envDefault:"gemini-2.0-flash-lite"`
	MemoryModel    string `env:"MEMORY_MODEL" envDefault:"gemini-2.0-flash"`
	PersonaModel   string `env:"PERSONA_MODEL" envDefault:"gemini-2.0-flash"`
	AgentModel     string `env:"AGENT_MODEL" envDefault:"gemini-2.0-flash"`
	ThinkMoreModel string `env:"THINK_MORE_MODEL" envDefault:"gemini-2.5-pro"`
	ThinkFastModel string `env:"THINK_FAST_MODEL" envDefault:"gemini-2.0-flash-lite"`
}

func (c Config) models() services.Models {
	return services.Models{
		Chat:      c.ChatModel,
		Title:     c.TitleModel,
		Memory:    c.MemoryModel,
		Persona:   c.PersonaModel,
		Agent:     c.AgentModel,
		ThinkMore: c.ThinkMoreModel,
		ThinkFast: c.ThinkFastModel,
	}
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing env config: %w", err)
	}

	opts, err := logger.NewOptions(cfg.LogLevel, cfg.LogNoColor)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, opts)))

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	workerGroup, err := setupWorkers(ctx, cfg)
	if err != nil {
		return err
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func newModelProvider(ctx context.Context, cfg Config) (services.ModelProvider, error) {
	switch cfg.ModelProvider {
	case providerGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return client, nil
	case providerOpenAI:
		client, err := openai.NewClient(cfg.OpenAIToken, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating open ai client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func setupWorkers(ctx context.Context, cfg Config) (workers.Group, error) {
	var workerGroup workers.Group

	provider, err := newModelProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}

	authenticator := auth.NewAuthenticator(cfg.APITokens)

	chatRepository := repository.NewChatRepository(db)
	messageRepository := repository.NewMessageRepository(db)
	agentRepository := repository.NewAgentRepository(db)
	memoryRepository := repository.NewMemoryRepository(db)

	models := cfg.models()

	chatService := services.NewChatService(
		provider,
		chatRepository,
		messageRepository,
		memoryRepository,
		models,
	)
	memoryService := services.NewMemoryService(provider, memoryRepository, models.Memory)
	agentService := services.NewAgentService(provider, agentRepository, models.Persona)

	router := api.NewRouter(api.Handlers{
		Chat:   chatService,
		Memory: memoryService,
		Agent:  agentService,
		DB:     db,
		Auth:   authenticator,
	})

	workerGroup = append(workerGroup, workers.NewHTTPServer(cfg.ListenAddr, router, func() {
		chatService.Wait()
		if err := db.Close(); err != nil {
			slog.Error("closing db", logger.Err(err))
		}
	}))

	return workerGroup, nil
}
