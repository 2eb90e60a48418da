package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend/backendtest"
)

var terse = persona.Config{Instruction: "be terse", Temperature: 0.2, MaxOutputTokens: 32}

func newController(t *testing.T, fake *backendtest.Backend, opts ...Option) *Controller {
	t.Helper()
	c, err := New(context.Background(), fake, terse, opts...)
	require.NoError(t, err)
	require.Equal(t, StateReady, c.State())
	return c
}

func TestSubmitAlternatesTurns(t *testing.T) {
	fake := backendtest.New()
	c := newController(t, fake)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		out, err := c.Submit(ctx, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		require.False(t, out.Failed())
		require.Equal(t, 2*i, c.Len())
		require.Equal(t, StateReady, c.State())
	}

	turns := slices.Collect(c.Snapshot())
	for i, turn := range turns {
		if i%2 == 0 {
			assert.Equal(t, chat.RoleUser, turn.Role)
		} else {
			assert.Equal(t, chat.RoleAssistant, turn.Role)
			assert.Equal(t, turns[i-1].Text, turn.Text, "fake echoes when unscripted")
		}
	}
}

func TestSubmitDoesNotResendHistory(t *testing.T) {
	fake := backendtest.New()
	c := newController(t, fake)
	ctx := context.Background()

	_, err := c.Submit(ctx, "one")
	require.NoError(t, err)
	_, err = c.Submit(ctx, "two")
	require.NoError(t, err)

	sessions := fake.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"one", "two"}, sessions[0].Received())
}

func TestResetUsesNewSession(t *testing.T) {
	fake := backendtest.New()
	c := newController(t, fake)
	ctx := context.Background()

	_, err := c.Submit(ctx, "before")
	require.NoError(t, err)
	firstID := c.SessionID()

	require.NoError(t, c.Reset(ctx))
	assert.Empty(t, slices.Collect(c.Snapshot()))
	assert.NotEqual(t, firstID, c.SessionID())

	_, err = c.Submit(ctx, "after")
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, backendtest.Call{SessionID: firstID, Text: "before"}, calls[0])
	assert.Equal(t, backendtest.Call{SessionID: c.SessionID(), Text: "after"}, calls[1])

	creates := fake.CreateCalls()
	require.Len(t, creates, 2)
	assert.Equal(t, terse, creates[0])
	assert.Equal(t, terse, creates[1], "reset must reuse the same persona config")
}

func TestSendFailureRecordsPlaceholder(t *testing.T) {
	fake := backendtest.New(
		backendtest.Reply{Err: backendtest.ErrScripted},
		backendtest.Reply{Text: "fine"},
	)
	c := newController(t, fake)
	ctx := context.Background()

	out, err := c.Submit(ctx, "again")
	require.NoError(t, err)
	require.True(t, out.Failed())
	assert.True(t, errors.Is(out.Failure, backend.ErrCall))
	assert.True(t, errors.Is(out.Failure, backendtest.ErrScripted))
	assert.Equal(t, StateReady, c.State())

	assert.Equal(t, []chat.Turn{
		{Role: chat.RoleUser, Text: "again"},
		{Role: chat.RoleAssistant, Text: ErrorPlaceholder(out.Failure)},
	}, c.Turns())
	assert.Contains(t, c.Turns()[1].Text, "Error: ")

	out, err = c.Submit(ctx, "next")
	require.NoError(t, err)
	assert.False(t, out.Failed())
	assert.Equal(t, "fine", out.Reply.Text)
	assert.Equal(t, 4, c.Len())
}

func TestCustomPlaceholder(t *testing.T) {
	fake := backendtest.New(backendtest.Reply{Err: backendtest.ErrScripted})
	c := newController(t, fake, WithPlaceholder(func(error) string { return "<error placeholder>" }))

	out, err := c.Submit(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "<error placeholder>", out.Reply.Text)
}

func TestCreateFailureAtConstruction(t *testing.T) {
	fake := backendtest.New()
	fake.FailCreate(errors.New("bad credentials"))

	c, err := New(context.Background(), fake, terse)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
	assert.Empty(t, fake.Calls())
}

func TestInvalidConfigAtConstruction(t *testing.T) {
	fake := backendtest.New()
	_, err := New(context.Background(), fake, persona.Config{Instruction: "x", Temperature: 2, MaxOutputTokens: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, persona.ErrInvalidConfig))
	assert.Empty(t, fake.CreateCalls(), "no session is created for an invalid persona")
}

func TestFailedResetLeavesControllerUnavailable(t *testing.T) {
	fake := backendtest.New()
	c := newController(t, fake)
	ctx := context.Background()

	_, err := c.Submit(ctx, "hello")
	require.NoError(t, err)

	fake.FailCreate(errors.New("network down"))
	err = c.Reset(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
	assert.Equal(t, StateUnavailable, c.State())
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.SessionID())

	_, err = c.Submit(ctx, "ignored")
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
	assert.Equal(t, 0, c.Len(), "a rejected submit records nothing")

	fake.FailCreate(nil)
	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, StateReady, c.State())

	out, err := c.Submit(ctx, "back")
	require.NoError(t, err)
	assert.Equal(t, "back", out.Reply.Text)
}

func TestDoubleResetIsIdempotent(t *testing.T) {
	fake := backendtest.New()
	c := newController(t, fake)
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, 0, c.Len())
	first := c.SessionID()

	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, 0, c.Len())
	assert.NotEqual(t, first, c.SessionID())

	assert.Len(t, fake.CreateCalls(), 3)
	assert.Len(t, fake.Sessions(), 3)
}

func TestEmptyReplyUsesPersonaFallback(t *testing.T) {
	fake := backendtest.New(backendtest.Reply{Text: ""}, backendtest.Reply{Text: ""})
	ctx := context.Background()

	withFallback := terse
	withFallback.EmptyReply = "I'm here with you."
	c, err := New(ctx, fake, withFallback)
	require.NoError(t, err)

	out, err := c.Submit(ctx, "...")
	require.NoError(t, err)
	assert.False(t, out.Failed())
	assert.Equal(t, "I'm here with you.", out.Reply.Text)

	plain := newController(t, fake)
	out, err = plain.Submit(ctx, "...")
	require.NoError(t, err)
	assert.False(t, out.Failed())
	assert.Equal(t, "", out.Reply.Text)
	assert.Equal(t, 2, plain.Len())
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	c := newController(t, backendtest.New())
	c.state = StateBusy

	_, err := c.Submit(context.Background(), "x")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 0, c.Len())
}

func TestExampleScenario(t *testing.T) {
	fake := backendtest.New(backendtest.Reply{Text: "hi"})
	ctx := context.Background()

	p, err := persona.NewConfig("be terse", 0.5, 100)
	require.NoError(t, err)
	c, err := New(ctx, fake, p, WithPlaceholder(func(error) string { return "<error placeholder>" }))
	require.NoError(t, err)

	_, err = c.Submit(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, []chat.Turn{
		{Role: chat.RoleUser, Text: "hello"},
		{Role: chat.RoleAssistant, Text: "hi"},
	}, slices.Collect(c.Snapshot()))

	require.NoError(t, c.Reset(ctx))
	assert.Empty(t, slices.Collect(c.Snapshot()))

	fake.Script(backendtest.Reply{Err: errors.New("boom")})
	_, err = c.Submit(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, []chat.Turn{
		{Role: chat.RoleUser, Text: "again"},
		{Role: chat.RoleAssistant, Text: "<error placeholder>"},
	}, slices.Collect(c.Snapshot()))
}

func TestPersonaIsACopy(t *testing.T) {
	c := newController(t, backendtest.New())
	cfg := c.Persona()
	cfg.Instruction = "changed"
	assert.Equal(t, "be terse", c.Persona().Instruction)
}
