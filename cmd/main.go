package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pion/logging"
	"github.com/redis/go-redis/v9"

	"roomrelay/backend/internal/api/handler"
	"roomrelay/backend/internal/chathub"
	"roomrelay/backend/internal/config"
	"roomrelay/backend/internal/ratelimit"
	"roomrelay/backend/internal/rooms"
	"roomrelay/backend/internal/signaling"
	"roomrelay/backend/internal/storage"
)

func newLoggerFactory(level logging.LogLevel) logging.LoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = level
	return factory
}

// connectRedis returns nil when Redis is not configured or not reachable;
// the relay then runs with in-memory rate limiting and no event mirror.
func connectRedis(cfg config.Redis, log logging.LeveledLogger) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis at %s unreachable, continuing without it: %v", cfg.Addr, err)
		_ = rdb.Close()
		return nil
	}
	log.Infof("connected to redis at %s", cfg.Addr)
	return rdb
}

func newLimiter(cfg *config.Config, rdb *redis.Client) ratelimit.Limiter {
	if rdb != nil {
		return ratelimit.NewSlidingWindow(rdb, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, "relay:ratelimit:")
	}
	return ratelimit.NewTokenBucket(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}
	cfg := config.Load()

	loggers := newLoggerFactory(cfg.LogLevel)
	mainLog := loggers.NewLogger("main")
	mainLog.Info("starting room relay")
	if cfg.AllowAllOrigins() {
		mainLog.Warn("ALLOWED_ORIGINS contains *, every origin is accepted")
	}

	// 1. Dependencies
	rdb := connectRedis(cfg.Redis, mainLog)

	opts := chathub.Options{
		Store:         rooms.NewStore(rooms.WithChatHistoryLimit(cfg.ChatHistoryLimit)),
		LoggerFactory: loggers,
		SignalUnicast: cfg.SignalUnicast,
	}
	if cfg.SignalValidate {
		opts.Validator = signaling.Strict{}
	}
	if rdb != nil && cfg.MirrorChannel != "" {
		opts.Publisher = storage.NewStorageService(rdb, cfg.MirrorChannel)
		mainLog.Infof("mirroring broadcasts to redis channel %s", cfg.MirrorChannel)
	}

	// 2. Hub
	hub := chathub.NewManagerService(opts)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// 3. Gin and routes
	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(hub, cfg, newLimiter(cfg, rdb))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		mainLog.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.Errorf("http server: %v", err)
			os.Exit(1)
		}
	}()

	// 4. Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
			"hub": func(ctx context.Context) error {
				stopHub()
				select {
				case <-hub.Done():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
			"redis": func(context.Context) error {
				if rdb == nil {
					return nil
				}
				return rdb.Close()
			},
		},
	)

	exitCode := <-wait
	mainLog.Infof("exited with code %d", exitCode)
	os.Exit(exitCode)
}
