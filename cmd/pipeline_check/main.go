package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"groupchat/internal/barrier"
	"groupchat/internal/config"
	"groupchat/internal/db"
	"groupchat/internal/domain"
	"groupchat/internal/identity"
	"groupchat/internal/llm"
	"groupchat/internal/repository"
	"groupchat/internal/service"
)

type Scenario struct {
	Name      string
	UserInput string
	Models    []domain.ModelTag
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	principalRepo := repository.NewPgPrincipalRepository(pool)
	groupRepo := repository.NewPgGroupRepository(pool)
	convRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	identitySvc := identity.NewService(logger, principalRepo, groupRepo)
	worker, err := identitySvc.EnsureWorker(ctx, cfg.WorkerPrincipalID)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	registry := llm.NewRegistry()
	registry.Register(domain.ModelGPT,
		llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, nil),
		llm.GPTSystemPrompt)
	registry.Register(domain.ModelGemini,
		llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, nil),
		llm.GeminiSystemPrompt)

	barrierTimeout := time.Duration(cfg.BarrierTimeoutSeconds) * time.Second
	waiter := barrier.NewWaiter(repository.NewPgProber(pool), 50*time.Millisecond)
	marker := service.NewMemoryBootstrapMarker(time.Duration(cfg.BootstrapMarkerTTLSeconds) * time.Second)

	convSvc := service.NewConversationService(logger, identitySvc, convRepo, messageRepo)
	bootstrapSvc := service.NewBootstrapService(logger, identitySvc, convRepo, messageRepo, waiter, marker, worker.ID, barrierTimeout)
	ingestSvc := service.NewIngestService(logger, convSvc, messageRepo, waiter, barrierTimeout)
	orch := service.NewOrchestrator(
		logger, identitySvc, convSvc, messageRepo, registry, waiter, worker,
		time.Duration(cfg.BackendTimeoutSeconds)*time.Second,
		barrierTimeout,
	)

	tester := domain.Principal{
		ID:          fmt.Sprintf("pipeline-check-%d", time.Now().Unix()),
		Kind:        domain.PrincipalHuman,
		DisplayName: "Pipeline Check",
		CreatedAt:   time.Now().UTC(),
	}
	if err := principalRepo.Create(ctx, tester); err != nil {
		log.Fatalf("create tester principal: %v", err)
	}

	scenarios := []Scenario{
		{
			Name:      "Un Solo Modelo",
			UserInput: "Hola! Como viene el dia?",
			Models:    []domain.ModelTag{domain.ModelGPT},
		},
		{
			Name:      "Ambos Modelos",
			UserInput: "Recomendame una pelicula para esta noche",
			Models:    []domain.ModelTag{domain.ModelGPT, domain.ModelGemini},
		},
	}

	passed := 0
	total := len(scenarios) + 1

	for _, sc := range scenarios {
		fmt.Printf("=== Ejecutando: %s ===\n", sc.Name)

		conv, err := bootstrapSvc.CreateConversation(ctx, tester.ID)
		if err != nil {
			fmt.Printf("❌ FAIL [%s] bootstrap: %v\n\n", sc.Name, err)
			continue
		}

		if _, err := ingestSvc.AppendUserMessage(ctx, conv.ID, tester.ID, sc.UserInput); err != nil {
			fmt.Printf("❌ FAIL [%s] ingest: %v\n\n", sc.Name, err)
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
		report, err := orch.RespondTo(runCtx, conv.ID, tester.ID, sc.Models)
		cancel()
		if err != nil {
			fmt.Printf("❌ FAIL [%s] respond: %v\n\n", sc.Name, err)
			continue
		}

		turns, err := convSvc.Turns(ctx, conv.ID, tester.ID)
		if err != nil {
			fmt.Printf("❌ FAIL [%s] turns: %v\n\n", sc.Name, err)
			continue
		}

		ok := len(turns) == 1
		for _, tag := range sc.Models {
			if !report.Results[tag] {
				fmt.Printf("   [%s] sin respuesta\n", tag)
				ok = false
				continue
			}
			if turns[0].Responses[tag] == nil {
				fmt.Printf("   [%s] respuesta reportada pero ausente del turno\n", tag)
				ok = false
			}
		}

		if ok {
			fmt.Printf("✅ PASS [%s]\n\n", sc.Name)
			passed++
		} else {
			fmt.Printf("❌ FAIL [%s]\n\n", sc.Name)
		}
	}

	// Una conversacion sin mensajes de usuario debe rechazar el trigger.
	fmt.Println("=== Ejecutando: Sin Contexto ===")
	conv, err := bootstrapSvc.CreateConversation(ctx, tester.ID)
	if err != nil {
		fmt.Printf("❌ FAIL [Sin Contexto] bootstrap: %v\n\n", err)
	} else if _, err := orch.RespondTo(ctx, conv.ID, tester.ID, []domain.ModelTag{domain.ModelGPT}); !errors.Is(err, service.ErrNoContext) {
		fmt.Printf("❌ FAIL [Sin Contexto] esperaba ErrNoContext, obtuve %v\n\n", err)
	} else {
		fmt.Println("✅ PASS [Sin Contexto]")
		fmt.Println()
		passed++
	}

	fmt.Printf("Checks: %d/%d pasaron\n", passed, total)
	if passed != total {
		os.Exit(1)
	}
	os.Exit(0)
}
