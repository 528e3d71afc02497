// Command chatcli is a terminal client for the chat backend. Prompts are read
// from stdin and answers are rendered while they stream in.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dskvich/memi-chat/pkg/chat"
	"github.com/dskvich/memi-chat/pkg/client"
	"github.com/dskvich/memi-chat/pkg/logger"
	"github.com/dskvich/memi-chat/pkg/storage/sqlite"
	"github.com/dskvich/memi-chat/pkg/store"
)

type Config struct {
	ServerURL  string        `env:"CHAT_SERVER_URL" envDefault:"http://localhost:8080"`
	Token      string        `env:"CHAT_API_TOKEN,required"`
	DataPath   string        `env:"CHAT_DATA_PATH"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"warn"`
	TitleDelay time.Duration `env:"CHAT_TITLE_DELAY" envDefault:"2s"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("chatcli failed", logger.Err(err))
		os.Exit(1)
	}
}

func dataPath(cfg Config) (string, error) {
	if cfg.DataPath != "" {
		return cfg.DataPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "memi-chat", "chat.db"), nil
}

// serviceOptions gives the backend time to generate a new chat's title before
// it is fetched.
func serviceOptions(cfg Config, nav chat.Navigator) []chat.Option {
	return []chat.Option{
		chat.WithNavigator(nav),
		chat.WithTitleDelay(cfg.TitleDelay),
	}
}

func run() error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing env config: %w", err)
	}

	opts, err := logger.NewOptions(cfg.LogLevel, false)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, opts)))

	path, err := dataPath(cfg)
	if err != nil {
		return err
	}
	persister, err := sqlite.NewPersister(path)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer persister.Close()

	api, err := client.New(cfg.ServerURL, cfg.Token)
	if err != nil {
		return fmt.Errorf("creating api client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chats := store.NewChatStore()
	agents := store.NewAgentStore()

	snap, err := persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading local store: %w", err)
	}
	chats.Restore(snap)

	c := newCLI(os.Stdout, chats, agents, api)
	c.svc = chat.NewService(api, chats, agents, store.NewAbortRegistry(), serviceOptions(cfg, c)...)

	unsubscribe := chats.Subscribe(newRenderer(os.Stdout, chats, c.CurrentChat).handle)
	defer unsubscribe()

	c.sync(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return c.loop(gctx, lines)
	})
	g.Go(func() error {
		return c.watchInterrupts(gctx, cancel)
	})

	err = g.Wait()

	c.svc.Wait()
	if saveErr := persister.Save(context.Background(), chats.Snapshot()); saveErr != nil {
		slog.Error("saving local store", logger.Err(saveErr))
	}
	return err
}

// watchInterrupts aborts the running stream on Ctrl-C. A Ctrl-C while nothing
// streams exits.
func (c *cli) watchInterrupts(ctx context.Context, exit context.CancelFunc) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-sigCh:
			if s == syscall.SIGINT && c.abortCurrent() {
				continue
			}
			exit()
			return nil
		}
	}
}
