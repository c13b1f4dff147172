package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groupchat/internal/barrier"
	"groupchat/internal/domain"
	"groupchat/internal/llm"
	"groupchat/internal/repository"
)

var (
	// ErrAccountNotFound indica que el principal que dispara la
	// peticion no resuelve.
	ErrAccountNotFound = errors.New("account not found")
	// ErrConversationUnavailable indica que la conversacion no cargo
	// ni con la identidad del caller ni con la del worker.
	ErrConversationUnavailable = errors.New("conversation unavailable")
	// ErrNoContext indica que el log no tiene mensajes de usuario a
	// los que responder.
	ErrNoContext = errors.New("no user messages to respond to")
	// ErrWorkerNotWriter indica que el worker no es escritor del grupo:
	// un bootstrap incompleto que debe verse, no un chat parcial mudo.
	ErrWorkerNotWriter = errors.New("worker is not a writer of the conversation group")
)

// RespondReport es el resultado por modelo de una invocacion. El fallo
// de un backend no es error del llamado: solo un false en el mapa.
type RespondReport struct {
	ConversationID string
	Results        map[domain.ModelTag]bool
}

// Orchestrator abre en abanico un turno hacia N backends independientes.
// Mantiene el handle del worker validado al arranque del proceso; no
// hay singleton perezoso por request.
type Orchestrator struct {
	logger         *zap.Logger
	identity       Identity
	convSvc        *ConversationService
	msgs           repository.MessageRepository
	registry       *llm.Registry
	waiter         *barrier.Waiter
	worker         domain.Principal
	backendTimeout time.Duration
	finalTimeout   time.Duration
}

func NewOrchestrator(
	logger *zap.Logger,
	id Identity,
	convSvc *ConversationService,
	msgs repository.MessageRepository,
	registry *llm.Registry,
	waiter *barrier.Waiter,
	worker domain.Principal,
	backendTimeout, finalTimeout time.Duration,
) *Orchestrator {
	if backendTimeout <= 0 {
		backendTimeout = 60 * time.Second
	}
	if finalTimeout <= 0 {
		finalTimeout = 5 * time.Second
	}
	return &Orchestrator{
		logger:         logger,
		identity:       id,
		convSvc:        convSvc,
		msgs:           msgs,
		registry:       registry,
		waiter:         waiter,
		worker:         worker,
		backendTimeout: backendTimeout,
		finalTimeout:   finalTimeout,
	}
}

// RespondTo responde un turno con cada modelo pedido. Los modelos se
// procesan de forma independiente: la caida de un backend nunca aborta
// a los demas. Devuelve el mapa de exito por tag.
func (o *Orchestrator) RespondTo(ctx context.Context, conversationID, callerID string, models []domain.ModelTag) (RespondReport, error) {
	report := RespondReport{Results: map[domain.ModelTag]bool{}}

	if _, err := o.identity.ResolvePrincipal(ctx, callerID, o.worker.ID); err != nil {
		return report, ErrAccountNotFound
	}

	// La peticion puede correr en paralelo con la propagacion de
	// permisos: si la carga con el caller falla, se reintenta con la
	// identidad del worker antes de rendirse.
	conv, group, err := o.convSvc.LoadAs(ctx, conversationID, callerID)
	if err != nil {
		o.logger.Warn("chat load failed with caller identity, retrying as worker",
			zap.Error(err),
			zap.String("conversation_id", conversationID),
			zap.String("caller", callerID),
		)
		conv, group, err = o.convSvc.LoadAs(ctx, conversationID, o.worker.ID)
		if err != nil {
			return report, ErrConversationUnavailable
		}
	}
	report.ConversationID = conv.ID

	messages, err := o.msgs.ListByLog(ctx, conv.LogID, false)
	if err != nil {
		return report, err
	}
	var userTexts []string
	for _, m := range messages {
		if m.Role == domain.RoleUser && !m.Text.IsEmpty() {
			userTexts = append(userTexts, m.Text.String())
		}
	}
	if len(userTexts) == 0 {
		return report, ErrNoContext
	}

	if !group.CanWrite(o.worker.ID) {
		return report, ErrWorkerNotWriter
	}

	requested := dedupeTags(models)
	for _, tag := range requested {
		report.Results[tag] = false
	}

	var (
		mu      sync.Mutex
		tracker barrier.Tracker
		wg      sync.WaitGroup
	)
	for _, tag := range requested {
		wg.Add(1)
		go func(tag domain.ModelTag) {
			defer wg.Done()
			ref, ok := o.respondWith(ctx, tag, conv, userTexts)
			if !ok {
				return
			}
			mu.Lock()
			report.Results[tag] = true
			tracker.Track(ref)
			mu.Unlock()
		}(tag)
	}
	wg.Wait()

	// Barrera final sobre todo lo escrito en esta llamada. Timeout
	// blando: se devuelve el mejor estado conocido.
	if err := o.waiter.Confirm(ctx, o.finalTimeout, tracker.Refs()...); err != nil {
		if errors.Is(err, barrier.ErrDurabilityTimeout) {
			o.logger.Warn("final durability barrier timed out",
				zap.String("conversation_id", conv.ID))
		} else {
			o.logger.Warn("final durability barrier failed", zap.Error(err),
				zap.String("conversation_id", conv.ID))
		}
	}

	return report, nil
}

// respondWith genera y persiste la respuesta de un modelo. Cualquier
// fallo se registra y se reporta como false; sin reintentos.
func (o *Orchestrator) respondWith(ctx context.Context, tag domain.ModelTag, conv domain.Conversation, userTexts []string) (barrier.Ref, bool) {
	entry, ok := o.registry.Lookup(tag)
	if !ok {
		o.logger.Warn("no backend registered for tag", zap.String("model", string(tag)))
		return barrier.Ref{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, o.backendTimeout)
	defer cancel()

	text, err := entry.Backend.Complete(callCtx, entry.SystemPrompt, userTexts)
	if err != nil {
		o.logger.Warn("backend call failed", zap.Error(err), zap.String("model", string(tag)))
		return barrier.Ref{}, false
	}
	if strings.TrimSpace(text) == "" {
		o.logger.Warn("backend returned empty response", zap.String("model", string(tag)))
		return barrier.Ref{}, false
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		LogID:     conv.LogID,
		Role:      domain.RoleAssistant,
		Model:     tag,
		Text:      domain.NewRichText(text),
		Reactions: domain.ReactionSet{},
		CreatedAt: time.Now().UTC(),
	}
	if err := o.msgs.Append(ctx, msg); err != nil {
		o.logger.Warn("append assistant message failed", zap.Error(err), zap.String("model", string(tag)))
		return barrier.Ref{}, false
	}

	ref := barrier.Ref{Kind: barrier.KindMessage, ID: msg.ID}
	if err := o.waiter.Confirm(ctx, o.finalTimeout, ref); err != nil {
		o.logger.Warn("assistant message durability not confirmed", zap.Error(err), zap.String("model", string(tag)))
		return barrier.Ref{}, false
	}

	o.logger.Info("assistant message appended",
		zap.String("conversation_id", conv.ID),
		zap.String("model", string(tag)),
		zap.String("message_id", msg.ID),
	)
	return ref, true
}

func dedupeTags(tags []domain.ModelTag) []domain.ModelTag {
	seen := make(map[domain.ModelTag]struct{}, len(tags))
	out := make([]domain.ModelTag, 0, len(tags))
	for _, t := range tags {
		if t == "" || t == domain.ModelUnknown {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
