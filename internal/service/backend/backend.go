// Package backend wraps generative-text services behind a stateful,
// persona-seeded chat session.
package backend

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

// Backend opens conversations against a generative-text service.
type Backend interface {
	// Create starts a conversation seeded with cfg's instruction and
	// generation parameters. Failures are *UnavailableError.
	Create(ctx context.Context, cfg persona.Config) (Session, error)
}

// Session is one server-side conversation. The backend keeps the history;
// callers send only the new user turn.
type Session interface {
	ID() string
	// Send delivers one user turn and returns the reply text. A reply with no
	// text is returned as "" without error. Failures are *CallError.
	Send(ctx context.Context, text string) (string, error)
}

var (
	// ErrUnavailable matches every *UnavailableError.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrCall matches every *CallError.
	ErrCall = errors.New("backend call failed")
)

// UnavailableError reports that a session could not be created.
type UnavailableError struct {
	Provider string
	Cause    error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s backend unavailable", e.Provider)
	}
	return fmt.Sprintf("%s backend unavailable: %v", e.Provider, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// CallError reports a failed turn on an existing session.
type CallError struct {
	Provider string
	Cause    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s backend call failed: %v", e.Provider, e.Cause)
}

func (e *CallError) Unwrap() error { return e.Cause }

func (e *CallError) Is(target error) bool { return target == ErrCall }

// Unavailable wraps cause as an *UnavailableError.
func Unavailable(provider string, cause error) error {
	return &UnavailableError{Provider: provider, Cause: cause}
}

// CallFailed wraps cause as a *CallError.
func CallFailed(provider string, cause error) error {
	return &CallError{Provider: provider, Cause: cause}
}
