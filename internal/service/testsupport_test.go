package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"groupchat/internal/barrier"
	"groupchat/internal/domain"
	"groupchat/internal/repository"
)

// trace registra eventos de store y barrera en orden de llegada, para
// poder afirmar el orden de los pasos de bootstrap.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (t *trace) add(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, fmt.Sprintf(format, args...))
}

func (t *trace) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

func (t *trace) indexOf(event string) int {
	for i, e := range t.list() {
		if e == event {
			return i
		}
	}
	return -1
}

// fakeIdentity implementa Identity sobre mapas en memoria.
type fakeIdentity struct {
	mu         sync.Mutex
	principals map[string]domain.Principal
	groups     map[string]*domain.PermissionGroup
	nextGroup  int
	resolveErr error
	addErr     error
	tr         *trace
}

func newFakeIdentity(tr *trace, principals ...domain.Principal) *fakeIdentity {
	f := &fakeIdentity{
		principals: map[string]domain.Principal{},
		groups:     map[string]*domain.PermissionGroup{},
		tr:         tr,
	}
	for _, p := range principals {
		f.principals[p.ID] = p
	}
	return f
}

func (f *fakeIdentity) ResolvePrincipal(_ context.Context, id, asWho string) (domain.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tr.add("resolve:%s:as:%s", id, asWho)
	if f.resolveErr != nil {
		return domain.Principal{}, f.resolveErr
	}
	if _, ok := f.principals[asWho]; !ok {
		return domain.Principal{}, identityAccessDenied
	}
	p, ok := f.principals[id]
	if !ok {
		return domain.Principal{}, identityNotFound
	}
	return p, nil
}

func (f *fakeIdentity) CreateGroup(_ context.Context, ownerID string) (domain.PermissionGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextGroup++
	g := &domain.PermissionGroup{
		ID:        fmt.Sprintf("group-%d", f.nextGroup),
		CreatedAt: time.Now().UTC(),
		Members:   []domain.Membership{{PrincipalID: ownerID, Role: domain.RoleAdmin}},
	}
	f.groups[g.ID] = g
	f.tr.add("group:create:%s:owner:%s", g.ID, ownerID)
	return *g, nil
}

func (f *fakeIdentity) AddMember(_ context.Context, groupID, principalID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tr.add("member:add:%s:%s:%s", groupID, principalID, role)
	if f.addErr != nil {
		return f.addErr
	}
	g, ok := f.groups[groupID]
	if !ok {
		g = &domain.PermissionGroup{ID: groupID}
		f.groups[groupID] = g
	}
	for i, m := range g.Members {
		if m.PrincipalID == principalID {
			g.Members[i].Role = role
			return nil
		}
	}
	g.Members = append(g.Members, domain.Membership{PrincipalID: principalID, Role: role})
	return nil
}

func (f *fakeIdentity) LoadGroup(_ context.Context, groupID string) (domain.PermissionGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return domain.PermissionGroup{}, identityNotFound
	}
	return *g, nil
}

// setGroup instala un grupo preconstruido, para tests que no pasan por
// bootstrap.
func (f *fakeIdentity) setGroup(g domain.PermissionGroup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := g
	f.groups[g.ID] = &copied
}

var (
	identityNotFound     = fmt.Errorf("fake identity: not found")
	identityAccessDenied = fmt.Errorf("fake identity: access denied")
)

// memConvRepo implementa repository.ConversationRepository en memoria.
type memConvRepo struct {
	mu    sync.Mutex
	convs map[string]domain.Conversation
	index map[string][]string
	tr    *trace
}

func newMemConvRepo(tr *trace) *memConvRepo {
	return &memConvRepo{
		convs: map[string]domain.Conversation{},
		index: map[string][]string{},
		tr:    tr,
	}
}

func (r *memConvRepo) Create(_ context.Context, c domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[c.ID] = c
	r.tr.add("conv:create:%s", c.ID)
	return nil
}

func (r *memConvRepo) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return domain.Conversation{}, repository.ErrNoRows
	}
	return c, nil
}

func (r *memConvRepo) Rename(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return repository.ErrNoRows
	}
	c.Name = name
	r.convs[id] = c
	return nil
}

func (r *memConvRepo) AddToIndex(_ context.Context, principalID, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[principalID] = append(r.index[principalID], conversationID)
	r.tr.add("index:add:%s:%s", principalID, conversationID)
	return nil
}

func (r *memConvRepo) ListIndex(_ context.Context, principalID string) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, id := range r.index[principalID] {
		if c, ok := r.convs[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// memMessageRepo implementa repository.MessageRepository en memoria,
// preservando orden de insercion por log.
type memMessageRepo struct {
	mu        sync.Mutex
	logs      map[string]string
	messages  []domain.Message
	reactions map[string]domain.ReactionSet
	appendErr error
	tr        *trace
}

func newMemMessageRepo(tr *trace) *memMessageRepo {
	return &memMessageRepo{
		logs:      map[string]string{},
		reactions: map[string]domain.ReactionSet{},
		tr:        tr,
	}
}

func (r *memMessageRepo) CreateLog(_ context.Context, logID, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[logID] = groupID
	r.tr.add("log:create:%s", logID)
	return nil
}

func (r *memMessageRepo) Append(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.messages = append(r.messages, msg)
	r.tr.add("msg:append:%s:%s", msg.Role, msg.ID)
	return nil
}

func (r *memMessageRepo) ListByLog(_ context.Context, logID string, withReactions bool) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.LogID != logID {
			continue
		}
		if withReactions {
			if set, ok := r.reactions[m.ID]; ok {
				m.Reactions = set
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memMessageRepo) SetReaction(_ context.Context, messageID, sessionKey, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.reactions[messageID]
	if !ok {
		set = domain.ReactionSet{}
		r.reactions[messageID] = set
	}
	set.Set(sessionKey, value)
	return nil
}

func (r *memMessageRepo) byRole(role domain.MessageRole) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// traceProber confirma visibilidad consultando los stores en memoria,
// registrando cada confirmacion en el trace.
type traceProber struct {
	convs *memConvRepo
	msgs  *memMessageRepo
	id    *fakeIdentity
	blind map[barrier.Kind]bool
	tr    *trace
}

func (p *traceProber) Visible(_ context.Context, ref barrier.Ref) (bool, error) {
	p.tr.add("probe:%s:%s", ref.Kind, ref.ID)
	if p.blind != nil && p.blind[ref.Kind] {
		return false, nil
	}
	switch ref.Kind {
	case barrier.KindGroup, barrier.KindMembership:
		p.id.mu.Lock()
		defer p.id.mu.Unlock()
		if ref.Kind == barrier.KindGroup {
			_, ok := p.id.groups[ref.ID]
			return ok, nil
		}
		g, ok := p.id.groups[ref.Scope]
		if !ok {
			return false, nil
		}
		for _, m := range g.Members {
			if m.PrincipalID == ref.ID {
				return true, nil
			}
		}
		return false, nil
	case barrier.KindLog:
		p.msgs.mu.Lock()
		defer p.msgs.mu.Unlock()
		_, ok := p.msgs.logs[ref.ID]
		return ok, nil
	case barrier.KindConversation:
		p.convs.mu.Lock()
		defer p.convs.mu.Unlock()
		_, ok := p.convs.convs[ref.ID]
		return ok, nil
	case barrier.KindMessage:
		p.msgs.mu.Lock()
		defer p.msgs.mu.Unlock()
		for _, m := range p.msgs.messages {
			if m.ID == ref.ID {
				return true, nil
			}
		}
		return false, nil
	case barrier.KindIndexEntry:
		p.convs.mu.Lock()
		defer p.convs.mu.Unlock()
		for _, id := range p.convs.index[ref.Scope] {
			if id == ref.ID {
				return true, nil
			}
		}
		return false, nil
	}
	return true, nil
}

// env agrupa toda la infraestructura fake de un test.
type env struct {
	tr     *trace
	id     *fakeIdentity
	convs  *memConvRepo
	msgs   *memMessageRepo
	prober *traceProber
	waiter *barrier.Waiter
}

func newEnv(principals ...domain.Principal) *env {
	tr := &trace{}
	id := newFakeIdentity(tr, principals...)
	convs := newMemConvRepo(tr)
	msgs := newMemMessageRepo(tr)
	prober := &traceProber{convs: convs, msgs: msgs, id: id, tr: tr}
	return &env{
		tr:     tr,
		id:     id,
		convs:  convs,
		msgs:   msgs,
		prober: prober,
		waiter: barrier.NewWaiter(prober, time.Millisecond),
	}
}

func (e *env) conversationService() *ConversationService {
	return NewConversationService(zap.NewNop(), e.id, e.convs, e.msgs)
}

func testPrincipal(id string, kind domain.PrincipalKind) domain.Principal {
	return domain.Principal{ID: id, Kind: kind, CreatedAt: time.Now().UTC()}
}
