// Package conversation owns one persona-bound chat: its backend session, its
// transcript, and the reset and turn-failure semantics around them.
//
// A Controller does no locking. Hosts must drive at most one Submit or Reset
// at a time per controller.
package conversation

import (
	"context"
	"iter"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
)

// State is the controller lifecycle state.
type State int

const (
	StateReady State = iota
	StateBusy
	// StateFailedTransient is held between a failed send and the placeholder
	// reply being recorded. Submit never returns in this state.
	StateFailedTransient
	// StateUnavailable means the last reset could not create a session.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateFailedTransient:
		return "failed_transient"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when Submit is called while a turn is in flight.
var ErrBusy = errors.New("conversation is busy")

// Outcome is the result of one submitted turn. Failure is set when the
// backend call failed and Reply holds the error placeholder.
type Outcome struct {
	User    chat.Turn
	Reply   chat.Turn
	Failure error
}

// Failed reports whether the backend call for this turn failed.
func (o Outcome) Failed() bool { return o.Failure != nil }

// Placeholder renders the assistant text recorded for a failed turn.
type Placeholder func(err error) string

// ErrorPlaceholder is the default Placeholder.
func ErrorPlaceholder(err error) string {
	return "Error: " + err.Error()
}

// Option configures a Controller.
type Option func(*Controller)

// WithPlaceholder overrides the failed-turn text.
func WithPlaceholder(p Placeholder) Option {
	return func(c *Controller) {
		if p != nil {
			c.placeholder = p
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller binds one persona config to one backend session and transcript.
type Controller struct {
	backend     backend.Backend
	cfg         persona.Config
	session     backend.Session
	log         chat.Log
	state       State
	placeholder Placeholder
	logger      zerolog.Logger
}

// New validates cfg and opens the first backend session. If the session
// cannot be created no controller is returned.
func New(ctx context.Context, b backend.Backend, cfg persona.Config, opts ...Option) (*Controller, error) {
	if b == nil {
		return nil, errors.New("backend is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		backend:     b,
		cfg:         cfg,
		placeholder: ErrorPlaceholder,
		logger:      log.Logger.With().Str("component", "conversation").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	session, err := b.Create(ctx, cfg)
	if err != nil {
		return nil, asUnavailable(err)
	}
	c.session = session
	c.state = StateReady
	c.logger.Debug().Str("session", session.ID()).Msg("conversation ready")
	return c, nil
}

// Submit records the user turn, sends it, and records exactly one assistant
// turn: the reply, the persona's empty-reply text, or the error placeholder.
// A backend call failure is reported in Outcome.Failure, not as the error
// result. The error result is non-nil only when no turn was recorded: the
// controller has no session, or a turn is already in flight.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	switch c.state {
	case StateBusy, StateFailedTransient:
		return Outcome{}, ErrBusy
	case StateUnavailable:
		return Outcome{}, backend.Unavailable("conversation", errors.New("no session; reset required"))
	}

	c.log.Append(chat.RoleUser, text)
	c.state = StateBusy
	out := Outcome{User: chat.Turn{Role: chat.RoleUser, Text: text}}

	reply, err := c.session.Send(ctx, text)
	if err != nil {
		c.state = StateFailedTransient
		err = asCallError(err)
		reply = c.placeholder(err)
		out.Failure = err
		c.logger.Warn().Err(err).Str("session", c.session.ID()).Msg("turn failed")
	} else if reply == "" && c.cfg.EmptyReply != "" {
		reply = c.cfg.EmptyReply
	}

	c.log.Append(chat.RoleAssistant, reply)
	out.Reply = chat.Turn{Role: chat.RoleAssistant, Text: reply}
	c.state = StateReady
	return out, nil
}

// Reset drops the session and transcript and opens a fresh session with the
// same persona config. On failure the controller is left unavailable until
// a later Reset succeeds.
func (c *Controller) Reset(ctx context.Context) error {
	c.session = nil
	c.log.Clear()

	session, err := c.backend.Create(ctx, c.cfg)
	if err != nil {
		c.state = StateUnavailable
		err = asUnavailable(err)
		c.logger.Error().Err(err).Msg("reset failed")
		return err
	}

	c.session = session
	c.state = StateReady
	c.logger.Debug().Str("session", session.ID()).Msg("conversation reset")
	return nil
}

// Persona returns a copy of the bound persona config.
func (c *Controller) Persona() persona.Config { return c.cfg }

// State reports the lifecycle state.
func (c *Controller) State() State { return c.state }

// SessionID identifies the current backend session, or "" when there is none.
func (c *Controller) SessionID() string {
	if c.session == nil {
		return ""
	}
	return c.session.ID()
}

// Snapshot iterates the transcript as of the call.
func (c *Controller) Snapshot() iter.Seq[chat.Turn] { return c.log.Snapshot() }

// Turns returns a copy of the transcript.
func (c *Controller) Turns() []chat.Turn { return c.log.Turns() }

// Len is the number of recorded turns.
func (c *Controller) Len() int { return c.log.Len() }

func asUnavailable(err error) error {
	if errors.Is(err, backend.ErrUnavailable) {
		return err
	}
	return backend.Unavailable("conversation", err)
}

func asCallError(err error) error {
	if errors.Is(err, backend.ErrCall) {
		return err
	}
	return backend.CallFailed("conversation", err)
}
