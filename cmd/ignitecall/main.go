package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ignitecall/ignitecall/internal/calendar"
	"github.com/ignitecall/ignitecall/internal/calendarsync"
	"github.com/ignitecall/ignitecall/internal/handlers"
	"github.com/ignitecall/ignitecall/internal/outbox"
	"github.com/ignitecall/ignitecall/internal/scheduling"
	"github.com/ignitecall/ignitecall/internal/storage"
	"github.com/ignitecall/ignitecall/libs/config"
	"github.com/ignitecall/ignitecall/libs/db"
	"github.com/ignitecall/ignitecall/libs/httpx"
	"github.com/ignitecall/ignitecall/libs/kafkax"
	otelx "github.com/ignitecall/ignitecall/libs/otel"
	"github.com/ignitecall/ignitecall/libs/runtime"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "ignitecall")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	outboxRepo := outbox.NewRepository(pool)
	syncJobs := calendarsync.NewRepository()
	userRepo := storage.NewUserRepository(pool)
	intervalRepo := storage.NewIntervalRepository(pool)
	schedulingRepo := storage.NewSchedulingRepository(pool, outboxRepo, syncJobs,
		config.Int("CALENDAR_SYNC_MAX_ATTEMPTS", 5))
	accountRepo := storage.NewAccountRepository(pool)

	svc := scheduling.NewService(userRepo, intervalRepo, schedulingRepo, scheduling.SystemClock(), logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	googleCalendar := calendar.NewGoogleService(
		config.String("GOOGLE_CLIENT_ID", ""),
		config.String("GOOGLE_CLIENT_SECRET", ""),
		accountRepo,
	)
	syncWorker := calendarsync.NewWorker(pool, syncJobs, outboxRepo, googleCalendar, logger, calendarsync.WorkerConfig{
		PollEvery: config.Duration("CALENDAR_SYNC_POLL_INTERVAL", 5*time.Second),
		BatchSize: config.Int("CALENDAR_SYNC_BATCH_SIZE", 10),
	})
	go syncWorker.Run(ctx)

	publicHandler := handlers.NewPublicHandler(svc, logger)
	userHandler := handlers.NewUserHandler(svc, logger, jwtSecret,
		config.String("COOKIE_SECURE", "true") != "false")

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	var publicLimiter httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT_PER_MINUTE", 60), time.Minute, "ignitecall")
		publicLimiter = limiter.Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	} else {
		limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 60), time.Minute)
		publicLimiter = limiter.Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/v1/public/availability", publicLimiter(http.HandlerFunc(publicHandler.Availability)))
	mux.Handle("/api/v1/public/blocked-dates", publicLimiter(http.HandlerFunc(publicHandler.BlockedDates)))
	mux.Handle("/api/v1/public/schedule", publicLimiter(http.HandlerFunc(publicHandler.Schedule)))
	mux.HandleFunc("/api/v1/users", userHandler.Register)
	mux.HandleFunc("/api/v1/users/profile", userHandler.UpdateProfile)
	mux.HandleFunc("/api/v1/users/time-intervals", userHandler.SaveTimeIntervals)
	mux.HandleFunc("/api/v1/schedulings", userHandler.ListSchedulings)

	corsOrigins := strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ",")
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
