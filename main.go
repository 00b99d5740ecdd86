package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/abdusco/linkzip/internal/analytics"
	"github.com/abdusco/linkzip/internal/auth"
	"github.com/abdusco/linkzip/internal/cache"
	"github.com/abdusco/linkzip/internal/db"
	"github.com/abdusco/linkzip/internal/handler"
	"github.com/abdusco/linkzip/internal/logger"
	"github.com/abdusco/linkzip/internal/repo"
	"github.com/abdusco/linkzip/internal/shortener"
	"github.com/abdusco/linkzip/internal/title"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type Config struct {
	Host        string
	Port        string
	BaseURL     string
	DBDriver    string
	DBPath      string
	DatabaseURL string `json:"-"`
	RedisURL    string `json:"-"`
	CacheTTL    time.Duration
	Users       string `json:"-"`
	JWTSecret   string `json:"-"`
	LogLevel    string
	Debug       bool
	QREndpoint  string

	TitleTimeout          time.Duration
	CodeLength            int
	MaxAllocationAttempts int
	ClickWorkers          int
	ClickQueueSize        int
}

func newConfigFromEnv() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := Config{
		Host:        os.Getenv("HOST"),
		Port:        cmp.Or(os.Getenv("PORT"), "8080"),
		BaseURL:     os.Getenv("BASE_URL"),
		DBDriver:    cmp.Or(os.Getenv("DB_DRIVER"), db.DriverSQLite),
		DBPath:      cmp.Or(os.Getenv("DB_PATH"), "linkzip.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Users:       os.Getenv("USERS"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    cmp.Or(os.Getenv("LOG_LEVEL"), "info"),
		Debug:       os.Getenv("DEBUG") == "1",
		QREndpoint:  cmp.Or(os.Getenv("QR_ENDPOINT"), handler.DefaultQREndpoint),
	}

	var err error
	durations := []struct {
		key  string
		dst  *time.Duration
		dflt time.Duration
	}{
		{"CACHE_TTL", &cfg.CacheTTL, cache.DefaultTTL},
		{"TITLE_TIMEOUT", &cfg.TitleTimeout, title.DefaultTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = durationEnv(d.key, d.dflt); err != nil {
			return Config{}, err
		}
	}

	ints := []struct {
		key  string
		dst  *int
		dflt int
	}{
		{"CODE_LENGTH", &cfg.CodeLength, shortener.DefaultCodeLength},
		{"MAX_ALLOCATION_ATTEMPTS", &cfg.MaxAllocationAttempts, shortener.DefaultMaxAttempts},
		{"CLICK_WORKERS", &cfg.ClickWorkers, shortener.DefaultWorkers},
		{"CLICK_QUEUE_SIZE", &cfg.ClickQueueSize, shortener.DefaultQueueSize},
	}
	for _, i := range ints {
		if *i.dst, err = intEnv(i.key, i.dflt); err != nil {
			return Config{}, err
		}
	}

	if cfg.CodeLength < 1 || cfg.CodeLength > shortener.MaxCodeLength {
		return Config{}, fmt.Errorf("CODE_LENGTH must be between 1 and %d", shortener.MaxCodeLength)
	}

	if cfg.DBDriver == db.DriverPostgres && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "linkzip-dev-secret"
		log.Warn().Msg("using default JWT_SECRET - set JWT_SECRET for production")
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func main() {
	cfg, err := newConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration from environment")
	}

	baseLogger, err := logger.Setup(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("failed to parse log level")
	}

	baseLogger.Info().
		Interface("config", cfg).
		Msg("current configuration")

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, baseLogger); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run(ctx context.Context, cfg Config, baseLogger zerolog.Logger) error {
	baseLogger.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Msg("starting application")

	users, err := auth.ParseUsers(cfg.Users)
	if err != nil {
		return fmt.Errorf("failed to parse USERS: %w", err)
	}
	if len(users) == 0 {
		baseLogger.Warn().Msg("no USERS configured - tokens can not be issued, links will be anonymous")
	}

	dsn := cfg.DBPath
	if cfg.DBDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	store, err := db.Init(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	var linkCache shortener.LinkCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			// the cache only saves store reads; run without it
			baseLogger.Warn().Err(err).Msg("link cache disabled")
		} else {
			defer client.Close()
			linkCache = cache.NewLinkCache(client, cfg.CacheTTL)
			baseLogger.Info().Dur("ttl", cfg.CacheTTL).Msg("link cache enabled")
		}
	}

	linksRepo := repo.NewLinksRepo(store)
	clicksRepo := repo.NewClicksRepo(store)

	recorder := shortener.NewRecorder(linksRepo, clicksRepo, baseLogger)
	dispatcher := shortener.NewDispatcher(recorder, cfg.ClickWorkers, cfg.ClickQueueSize, baseLogger)

	service := shortener.NewService(
		linksRepo,
		shortener.NewAllocator(linksRepo, shortener.NewRandomGenerator(cfg.CodeLength), cfg.MaxAllocationAttempts, baseLogger),
		shortener.NewResolver(linksRepo, linkCache, baseLogger),
		title.NewFetcher(cfg.TitleTimeout, baseLogger),
		dispatcher,
		baseLogger,
	)

	e := handler.NewRouter(handler.RouterConfig{
		Service:       service,
		Aggregator:    analytics.NewAggregator(linksRepo, clicksRepo, baseLogger),
		Authenticator: auth.NewAuthenticator(users, cfg.JWTSecret),
		BaseURL:       cfg.BaseURL,
		QREndpoint:    cfg.QREndpoint,
		Logger:        baseLogger,
	})
	defer e.Close()

	address := cfg.Host + ":" + cfg.Port
	baseLogger.Info().Str("address", address).Msg("server starting")

	// Run server and handle graceful shutdown
	runServer(ctx, e, address)

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		baseLogger.Error().Err(err).Msg("pending clicks were not recorded")
	}

	return nil
}

func runServer(ctx context.Context, e *echo.Echo, address string) {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(address)
	}()

	// Wait for context cancellation (Ctrl+C or SIGTERM) or a failed start
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
		return
	}

	log.Info().Msg("shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during graceful shutdown")
	}

	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}
