package backend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

type recordingModel struct {
	mu      sync.Mutex
	inputs  [][]*schema.Message
	options []*model.Options
	reply   string
	err     error
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	m.options = append(m.options, model.GetCommonOptions(&model.Options{}, opts...))
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *recordingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *recordingModel) BindTools([]*schema.ToolInfo) error { return nil }

func TestEinoSessionBuildsPrompt(t *testing.T) {
	ctx := context.Background()
	fake := &recordingModel{reply: "hi"}
	b, err := NewEino(ctx, "ark", fake)
	require.NoError(t, err)

	session, err := b.Create(ctx, persona.Config{Instruction: "be terse", Temperature: 0.3, MaxOutputTokens: 77})
	require.NoError(t, err)

	reply, err := session.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)

	_, err = session.Send(ctx, "again")
	require.NoError(t, err)

	require.Len(t, fake.inputs, 2)
	second := fake.inputs[1]
	require.Len(t, second, 4)
	assert.Equal(t, schema.System, second[0].Role)
	assert.Equal(t, "be terse", second[0].Content)
	assert.Equal(t, schema.User, second[1].Role)
	assert.Equal(t, "hello", second[1].Content)
	assert.Equal(t, schema.Assistant, second[2].Role)
	assert.Equal(t, "hi", second[2].Content)
	assert.Equal(t, "again", second[3].Content)

	opts := fake.options[0]
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.3, *opts.Temperature, 1e-6)
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 77, *opts.MaxTokens)
}

func TestEinoSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	fake := &recordingModel{reply: "ok"}
	b, err := NewEino(ctx, "ark", fake)
	require.NoError(t, err)

	cfg := persona.Config{Instruction: "x", Temperature: 0, MaxOutputTokens: 1}
	first, err := b.Create(ctx, cfg)
	require.NoError(t, err)
	second, err := b.Create(ctx, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	_, err = first.Send(ctx, "a")
	require.NoError(t, err)
	_, err = second.Send(ctx, "b")
	require.NoError(t, err)

	assert.Len(t, fake.inputs[1], 2, "second session must not see the first session's history")
}

func TestEinoSendFailure(t *testing.T) {
	ctx := context.Background()
	fake := &recordingModel{err: errors.New("quota exceeded")}
	b, err := NewEino(ctx, "ark", fake)
	require.NoError(t, err)

	session, err := b.Create(ctx, persona.Config{Instruction: "x", Temperature: 0, MaxOutputTokens: 1})
	require.NoError(t, err)

	_, err = session.Send(ctx, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCall))
	assert.Contains(t, err.Error(), "quota exceeded")

	fake.err = nil
	fake.reply = "recovered"
	_, err = session.Send(ctx, "again")
	require.NoError(t, err)
	assert.Len(t, fake.inputs[1], 2, "failed exchange must not enter history")
}

func TestNewEinoRequiresModel(t *testing.T) {
	_, err := NewEino(context.Background(), "ark", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
