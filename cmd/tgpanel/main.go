package main

import (
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

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/arasverel/tgpanel/pkg/api"
	"github.com/arasverel/tgpanel/pkg/audit"
	"github.com/arasverel/tgpanel/pkg/auth"
	"github.com/arasverel/tgpanel/pkg/authz"
	"github.com/arasverel/tgpanel/pkg/config"
	"github.com/arasverel/tgpanel/pkg/middleware"
	"github.com/arasverel/tgpanel/pkg/observability"
	"github.com/arasverel/tgpanel/pkg/store"
	"github.com/arasverel/tgpanel/pkg/telegram"
)

func main() {
	seed := flag.Bool("seed", false, "Create the initial superadmin account and starter configuration, then exit")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.SetLevel(logrusLevel(cfg.LogLevel.String()))

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Driver:   cfg.Database.Driver,
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
		Timeout:  cfg.Database.Timeout,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()
	log.Printf("Database ready (%s)", cfg.Database.Driver)

	if *seed {
		if err := runSeed(ctx, st, log); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		return
	}

	// Rate limit counters live in Redis when configured, so lockouts hold
	// across replicas; otherwise in process memory.
	var limiterStore middleware.LimiterStore
	if cfg.RateLimit.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to reach redis: %v", err)
		}
		defer client.Close()
		limiterStore = middleware.NewRedisStore(client, "tgpanel")
		log.Println("Login rate limiting backed by redis")
	} else {
		mem := middleware.NewMemoryStore()
		mem.StartSweep(ctx, time.Minute)
		limiterStore = mem
	}
	limiter := middleware.NewLoginLimiter(limiterStore,
		cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window, cfg.RateLimit.BlockDuration, logger)

	sessions := auth.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL,
		cfg.Auth.CookieName, cfg.Auth.SecureCookies, st)
	guard := authz.NewGuard(st)
	recorder := audit.NewRecorder(st, logger)
	metrics := observability.NewMetrics(nil)

	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.BotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Printf("Warning: Telegram client unavailable, channel metadata will go stale: %v", err)
		} else {
			log.Printf("Telegram client ready (@%s)", botAPI.Self.UserName)
		}
	}
	var chatAPI telegram.ChatAPI
	if botAPI != nil {
		chatAPI = botAPI
	}
	refresher := telegram.NewRefresher(chatAPI, st, logger)

	scheduler := cron.New()
	if refresher.Enabled() {
		if _, err := scheduler.AddFunc(cfg.Telegram.RefreshSchedule, func() {
			refresher.RefreshAll(ctx)
		}); err != nil {
			log.Fatalf("Invalid refresh schedule %q: %v", cfg.Telegram.RefreshSchedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := api.NewServer(st, sessions, guard, limiter, recorder, refresher, metrics, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Panel listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func logrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// runSeed bootstraps a fresh installation: one superadmin account plus a
// small starter filter configuration. It is idempotent.
func runSeed(ctx context.Context, st *store.Store, log *logrus.Logger) error {
	const adminUsername = "admin"

	_, err := st.UserByUsername(ctx, adminUsername)
	switch {
	case err == nil:
		log.Printf("Superadmin %q already exists, skipping", adminUsername)
	case errors.Is(err, store.ErrNotFound):
		password := os.Getenv("TGPANEL_SEED_PASSWORD")
		if password == "" {
			return errors.New("TGPANEL_SEED_PASSWORD must be set to seed the superadmin account")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		u, err := st.CreateUser(ctx, store.CreateUserParams{
			Username:     adminUsername,
			PasswordHash: hash,
			DisplayName:  "Administrator",
			Role:         string(auth.RoleSuperadmin),
		})
		if err != nil {
			return fmt.Errorf("failed to create superadmin: %w", err)
		}
		log.Printf("Created superadmin %q (id=%d)", u.Username, u.ID)
	default:
		return fmt.Errorf("failed to check for existing superadmin: %w", err)
	}

	for _, kw := range []string{"alert", "breaking"} {
		if _, err := st.UpsertKeyword(ctx, kw); err != nil {
			return fmt.Errorf("failed to seed keyword %q: %w", kw, err)
		}
	}
	for _, word := range []string{"spam"} {
		if _, err := st.UpsertBannedWord(ctx, word); err != nil {
			return fmt.Errorf("failed to seed banned word %q: %w", word, err)
		}
	}
	log.Println("Starter filter configuration seeded")
	return nil
}
