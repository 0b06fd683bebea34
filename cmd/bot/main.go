package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/bot"
	"github.com/habtamu-tamere/Bot/internal/config"
	"github.com/habtamu-tamere/Bot/internal/conversation"
	"github.com/habtamu-tamere/Bot/internal/cvs"
	"github.com/habtamu-tamere/Bot/internal/jobs"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/notify"
	"github.com/habtamu-tamere/Bot/internal/order"
	"github.com/habtamu-tamere/Bot/internal/session"
	"github.com/habtamu-tamere/Bot/internal/storage"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
	"github.com/habtamu-tamere/Bot/internal/telegram/middleware"
	"github.com/habtamu-tamere/Bot/internal/telegram/router"
	"github.com/habtamu-tamere/Bot/internal/telegram/sender"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("bot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() {
		if err := logging.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := storage.Migrate(cfg.Database); err != nil {
		return err
	}
	db, err := storage.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := cfg.BuildCatalog()
	if err != nil {
		return err
	}

	dispatcher := sender.New(sender.Options{
		QueueSize:    cfg.Sender.QueueSize,
		Workers:      cfg.Sender.Workers,
		MaxRetries:   cfg.Sender.MaxRetries,
		RetryBackoff: time.Duration(cfg.Sender.RetryBackoffSecs) * time.Second,
	})

	notifier := notify.New(dispatcher, notify.Options{
		AdminID: cfg.Telegram.AdminID,
		Channel: cfg.Telegram.Channel,
	})

	sessions := session.NewStore(cat)
	orders := order.NewSQLRepository(db)
	jobRepo := jobs.NewSQLRepository(db)
	cvRepo := cvs.NewSQLRepository(db)
	engine := conversation.NewEngine(cat, sessions, orders, notifier)

	app := bot.New(engine, sessions, cat, orders, jobRepo, cvRepo, notifier, bot.Options{
		AdminID: cfg.Telegram.AdminID,
		WebURL:  cfg.Telegram.WebURL,
	})

	reg := tg.NewRegistry()
	app.Register(reg)

	routes := router.CommandRoutes(reg, router.CommandOptions{AdminID: cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(app, reg)...)

	var middlewares []tg.Middleware
	if cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		middlewares = append(middlewares, tg.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimit(middleware.RateLimitOptions{
				Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:  exclude,
			}),
		})
	}

	startedAt := time.Now()
	return tg.Run(ctx, tg.RunOptions{
		Token: cfg.Telegram.Token,
		Poller: tg.PollerOptions{
			RunMode:                cfg.Telegram.RunMode,
			LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
			Webhook: tg.WebhookOptions{
				Listen: cfg.Webhook.Listen,
				Port:   cfg.Webhook.Port,
				URL:    cfg.Webhook.URL,
			},
		},
		Registry:    reg,
		Dispatcher:  dispatcher,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(ctx context.Context, b *tele.Bot) error {
			notifier.Bind(b)
			logging.Info(ctx, "app", "ready",
				slog.Duration("startup_duration", logging.RoundMS(time.Since(startedAt))),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ *tele.Bot) error {
			logging.Info(ctx, "app", "shutdown")
			return nil
		},
	})
}
