package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
	"github.com/zhouzirui/persona-chat/backend/internal/service/conversation"
)

var (
	ErrPersonaRequired      = errors.New("persona id is required")
	ErrPersonaNotFound      = errors.New("persona not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// View is a rendered conversation: metadata plus the transcript at one point
// in time.
type View struct {
	chat.Session
	State    string      `json:"state"`
	Messages []chat.Turn `json:"messages"`
}

type entry struct {
	// mu serialises Submit and Reset; the controller itself does no locking.
	mu      sync.Mutex
	session chat.Session
	ctrl    *conversation.Controller
}

func (e *entry) view() View {
	return View{
		Session:  e.session,
		State:    e.ctrl.State().String(),
		Messages: e.ctrl.Turns(),
	}
}

// Service keeps one conversation controller per logical conversation and
// serialises calls on each of them.
type Service struct {
	backend  backend.Backend
	personas persona.Store
	opts     []conversation.Option

	mu            sync.RWMutex
	conversations map[string]*entry
}

// NewService wires conversations to backend and personas.
func NewService(b backend.Backend, personas persona.Store, opts ...conversation.Option) *Service {
	return &Service{
		backend:       b,
		personas:      personas,
		opts:          opts,
		conversations: make(map[string]*entry),
	}
}

// Personas exposes the registry the service resolves persona ids against.
func (s *Service) Personas() persona.Store {
	return s.personas
}

// CreateConversation opens a conversation bound to a persona. Backend session
// failures are returned unchanged so hosts can tell them apart.
func (s *Service) CreateConversation(ctx context.Context, personaID string) (View, error) {
	if personaID == "" {
		return View{}, ErrPersonaRequired
	}
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return View{}, errors.Wrapf(ErrPersonaNotFound, "persona %q", personaID)
	}

	ctrl, err := conversation.New(ctx, s.backend, p.Config, s.opts...)
	if err != nil {
		return View{}, err
	}

	e := &entry{
		session: chat.Session{
			ID:        uuid.NewString(),
			PersonaID: p.ID,
			CreatedAt: time.Now().UTC(),
		},
		ctrl: ctrl,
	}

	s.mu.Lock()
	s.conversations[e.session.ID] = e
	s.mu.Unlock()

	log.Info().Str("component", "chat").Str("conversation", e.session.ID).
		Str("persona", p.ID).Msg("conversation created")
	return e.view(), nil
}

// Submit runs one turn. The returned outcome reports a failed backend call;
// the error is reserved for turns that could not run at all.
func (s *Service) Submit(ctx context.Context, id, text string) (conversation.Outcome, View, error) {
	e, err := s.lookup(id)
	if err != nil {
		return conversation.Outcome{}, View{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.ctrl.Submit(ctx, text)
	if err != nil {
		return conversation.Outcome{}, e.view(), err
	}
	return out, e.view(), nil
}

// Reset starts the conversation over with a fresh backend session.
func (s *Service) Reset(ctx context.Context, id string) (View, error) {
	e, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ctrl.Reset(ctx); err != nil {
		return e.view(), err
	}
	log.Info().Str("component", "chat").Str("conversation", id).Msg("conversation reset")
	return e.view(), nil
}

// Get renders a conversation. It waits for an in-flight turn so a
// half-finished turn is never observed.
func (s *Service) Get(_ context.Context, id string) (View, error) {
	e, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view(), nil
}

// Delete drops a conversation and its backend session.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	return nil
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return e, nil
}
