// Package backendtest provides a scripted backend for tests.
package backendtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
)

const Provider = "fake"

// Call records one Send on one session.
type Call struct {
	SessionID string
	Text      string
}

// Reply scripts the result of one Send. A non-nil Err fails the call.
type Reply struct {
	Text string
	Err  error
}

// Backend is a backend.Backend double. Replies are consumed in order across
// all sessions; when the script runs out, Send echoes the text back.
type Backend struct {
	mu sync.Mutex

	// CreateErr, when set, fails every Create.
	CreateErr error

	replies  []Reply
	created  []persona.Config
	sessions []*Session
	calls    []Call
}

var _ backend.Backend = (*Backend)(nil)

// New returns a Backend scripted with replies.
func New(replies ...Reply) *Backend {
	return &Backend{replies: replies}
}

// Script appends replies to the queue.
func (b *Backend) Script(replies ...Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, replies...)
}

// FailCreate makes subsequent Create calls fail with cause; nil restores them.
func (b *Backend) FailCreate(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CreateErr = cause
}

func (b *Backend) Create(_ context.Context, cfg persona.Config) (backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.created = append(b.created, cfg)
	if b.CreateErr != nil {
		return nil, backend.Unavailable(Provider, b.CreateErr)
	}
	s := &Session{id: fmt.Sprintf("fake-%d", len(b.sessions)+1), owner: b}
	b.sessions = append(b.sessions, s)
	return s, nil
}

// CreateCalls returns the configs passed to every Create, failed or not.
func (b *Backend) CreateCalls() []persona.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]persona.Config(nil), b.created...)
}

// Sessions returns the sessions created so far.
func (b *Backend) Sessions() []*Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Session(nil), b.sessions...)
}

// Calls returns every Send in order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Session is a fake backend.Session.
type Session struct {
	id    string
	owner *Backend
	texts []string
}

func (s *Session) ID() string { return s.id }

func (s *Session) Send(_ context.Context, text string) (string, error) {
	b := s.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{SessionID: s.id, Text: text})
	s.texts = append(s.texts, text)

	if len(b.replies) == 0 {
		return text, nil
	}
	r := b.replies[0]
	b.replies = b.replies[1:]
	if r.Err != nil {
		return "", backend.CallFailed(Provider, r.Err)
	}
	return r.Text, nil
}

// Received returns the texts this session was sent.
func (s *Session) Received() []string {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// ErrScripted is a convenient failure cause for scripts.
var ErrScripted = errors.New("scripted failure")
