package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"groupchat/internal/barrier"
	"groupchat/internal/config"
	"groupchat/internal/db"
	"groupchat/internal/domain"
	apihttp "groupchat/internal/http"
	"groupchat/internal/identity"
	"groupchat/internal/llm"
	"groupchat/internal/repository"
	"groupchat/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	principalRepo := repository.NewPgPrincipalRepository(pool)
	groupRepo := repository.NewPgGroupRepository(pool)
	convRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	identitySvc := identity.NewService(logger, principalRepo, groupRepo)

	barrierTimeout := time.Duration(cfg.BarrierTimeoutSeconds) * time.Second
	waiter := barrier.NewWaiter(repository.NewPgProber(pool), 50*time.Millisecond)

	// El worker se resuelve y valida al arranque, con reintentos
	// acotados y confirmacion de visibilidad. Sin worker no hay servicio.
	worker, err := acquireWorker(ctx, logger, identitySvc, waiter, cfg.WorkerPrincipalID, barrierTimeout)
	if err != nil {
		logger.Fatal("worker unavailable", zap.Error(err), zap.String("worker_id", cfg.WorkerPrincipalID))
	}

	var (
		markerTTL = time.Duration(cfg.BootstrapMarkerTTLSeconds) * time.Second
		marker    = service.NewMemoryBootstrapMarker(markerTTL)
		limiter   service.RespondRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			marker = service.NewRedisBootstrapMarker(redisClient, markerTTL)
			limiter = service.NewRedisRespondRateLimiter(
				redisClient,
				time.Duration(cfg.RespondRateWindowSeconds)*time.Second,
				cfg.RespondRateMax,
			)
		}
		cancel()
	}

	registry := llm.NewRegistry()
	registry.Register(domain.ModelGPT,
		llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, nil),
		llm.GPTSystemPrompt)
	registry.Register(domain.ModelGemini,
		llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, nil),
		llm.GeminiSystemPrompt)

	convSvc := service.NewConversationService(logger, identitySvc, convRepo, messageRepo)
	bootstrapSvc := service.NewBootstrapService(logger, identitySvc, convRepo, messageRepo, waiter, marker, worker.ID, barrierTimeout)
	ingestSvc := service.NewIngestService(logger, convSvc, messageRepo, waiter, barrierTimeout)
	orch := service.NewOrchestrator(
		logger, identitySvc, convSvc, messageRepo, registry, waiter, worker,
		time.Duration(cfg.BackendTimeoutSeconds)*time.Second,
		barrierTimeout,
	)

	verifier := service.NewTokenVerifier(cfg.JWTSecret)
	chatHandler := apihttp.NewChatHandler(logger, orch, limiter)
	convHandler := apihttp.NewConversationHandler(logger, bootstrapSvc, convSvc, ingestSvc, marker)
	router := apihttp.NewRouter(logger, verifier, chatHandler, convHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	tags := make([]string, 0, len(registry.Tags()))
	for _, tag := range registry.Tags() {
		tags = append(tags, string(tag))
	}
	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("worker_id", worker.ID),
		zap.Strings("models", tags),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func acquireWorker(ctx context.Context, logger *zap.Logger, identitySvc *identity.Service, waiter *barrier.Waiter, workerID string, timeout time.Duration) (domain.Principal, error) {
	var (
		worker domain.Principal
		err    error
	)
	for attempt := 1; attempt <= 5; attempt++ {
		ctxTry, cancel := context.WithTimeout(ctx, 5*time.Second)
		worker, err = identitySvc.EnsureWorker(ctxTry, workerID)
		if err == nil {
			err = waiter.Confirm(ctxTry, timeout, barrier.Ref{Kind: barrier.KindPrincipal, ID: worker.ID})
		}
		cancel()
		if err == nil {
			return worker, nil
		}
		logger.Warn("worker acquisition failed, retrying",
			zap.Error(err), zap.Int("attempt", attempt))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return domain.Principal{}, err
}
