package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
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

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

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

	me, err := ensurePrincipal(ctx, reader, principalRepo)
	if err != nil {
		log.Fatalf("principal: %v", err)
	}

	for {
		fmt.Println("===== Group Chat =====")
		convs, err := convSvc.Index(ctx, me.ID)
		if err != nil {
			log.Fatalf("listar conversaciones: %v", err)
		}

		fmt.Println("Conversaciones:")
		for i, c := range convs {
			fmt.Printf("[%d] %s (ID: %s)\n", i+1, c.Name, c.ID)
		}
		fmt.Println("[N] Nueva conversacion")
		fmt.Println("[Q] Salir")
		fmt.Print("Seleccion: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		var selected domain.Conversation
		switch {
		case strings.EqualFold(choice, "Q"):
			return
		case strings.EqualFold(choice, "N"):
			selected, err = bootstrapSvc.CreateConversation(ctx, me.ID)
			if err != nil {
				log.Fatalf("crear conversacion: %v", err)
			}
			fmt.Printf("Conversacion creada: %s\n", selected.ID)
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(convs) {
				fmt.Println("Seleccion invalida.")
				continue
			}
			selected = convs[idx-1]
		}

		if err := chatLoop(ctx, reader, me, selected, convSvc, ingestSvc, orch); err != nil {
			log.Printf("error en chat: %v", err)
		}
	}
}

func ensurePrincipal(ctx context.Context, reader *bufio.Reader, repo repository.PrincipalRepository) (domain.Principal, error) {
	fmt.Print("Tu principal id: ")
	id, _ := reader.ReadString('\n')
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Principal{}, errors.New("principal id vacio")
	}

	p, err := repo.GetByID(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return domain.Principal{}, err
	}

	p = domain.Principal{
		ID:          id,
		Kind:        domain.PrincipalHuman,
		DisplayName: id,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(ctx, p); err != nil {
		return domain.Principal{}, err
	}
	fmt.Printf("Principal %s creado.\n", id)
	return p, nil
}

func chatLoop(
	ctx context.Context,
	reader *bufio.Reader,
	me domain.Principal,
	conv domain.Conversation,
	convSvc *service.ConversationService,
	ingestSvc *service.IngestService,
	orch *service.Orchestrator,
) error {
	models := []domain.ModelTag{domain.ModelGPT, domain.ModelGemini}

	fmt.Printf("--- %s ---\n", conv.Name)
	fmt.Println("Comandos: /models gpt,gemini | /rename <nombre> | /share | /turns | /back")
	printTurns(ctx, convSvc, conv.ID, me.ID)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/back":
			return nil
		case line == "/turns":
			printTurns(ctx, convSvc, conv.ID, me.ID)
			continue
		case line == "/share":
			if err := convSvc.Share(ctx, conv.ID, me.ID); err != nil {
				fmt.Printf("no se pudo compartir: %v\n", err)
			} else {
				fmt.Println("Conversacion compartida con todos.")
			}
			continue
		case strings.HasPrefix(line, "/rename "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/rename "))
			if err := convSvc.Rename(ctx, conv.ID, me.ID, name); err != nil {
				fmt.Printf("no se pudo renombrar: %v\n", err)
			} else {
				conv.Name = name
				fmt.Printf("Ahora se llama %q.\n", name)
			}
			continue
		case strings.HasPrefix(line, "/models "):
			models = parseModels(strings.TrimPrefix(line, "/models "))
			fmt.Printf("Respondiendo con: %v\n", models)
			continue
		}

		if _, err := ingestSvc.AppendUserMessage(ctx, conv.ID, me.ID, line); err != nil {
			fmt.Printf("no se pudo enviar: %v\n", err)
			continue
		}

		report, err := orch.RespondTo(ctx, conv.ID, me.ID, models)
		if err != nil {
			fmt.Printf("sin respuestas: %v\n", err)
			continue
		}
		for tag, ok := range report.Results {
			if !ok {
				fmt.Printf("[%s] no hay respuesta disponible\n", tag)
			}
		}
		printLastTurn(ctx, convSvc, conv.ID, me.ID)
	}
}

func parseModels(raw string) []domain.ModelTag {
	out := make([]domain.ModelTag, 0, 2)
	for _, part := range strings.Split(raw, ",") {
		if tag := domain.ParseModelTag(part); tag != domain.ModelUnknown {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		out = []domain.ModelTag{domain.DefaultModelTag}
	}
	return out
}

func printTurns(ctx context.Context, convSvc *service.ConversationService, conversationID, asWho string) {
	turns, err := convSvc.Turns(ctx, conversationID, asWho)
	if err != nil {
		fmt.Printf("no se pudo cargar el historial: %v\n", err)
		return
	}
	for _, turn := range turns {
		printTurn(turn)
	}
}

func printLastTurn(ctx context.Context, convSvc *service.ConversationService, conversationID, asWho string) {
	turns, err := convSvc.Turns(ctx, conversationID, asWho)
	if err != nil || len(turns) == 0 {
		return
	}
	printTurn(turns[len(turns)-1])
}

func printTurn(turn domain.ConversationTurn) {
	if turn.User != nil {
		fmt.Printf("tu: %s\n", turn.User.Text.String())
	}
	for _, tag := range domain.KnownModelTags() {
		if msg, ok := turn.Responses[tag]; ok && msg != nil {
			fmt.Printf("[%s] %s\n", tag, msg.Text.String())
		}
	}
}
