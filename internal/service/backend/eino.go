package backend

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

// Eino runs conversations through an eino chat chain: the persona
// instruction as system message, the accumulated history, then the new user
// turn. Any eino chat model works; Ark is the configured production model.
type Eino struct {
	provider string
	chain    compose.Runnable[map[string]any, *schema.Message]
}

var _ Backend = (*Eino)(nil)

// NewEino compiles the chat chain around chatModel.
func NewEino(ctx context.Context, provider string, chatModel model.ChatModel) (*Eino, error) {
	if chatModel == nil {
		return nil, Unavailable(provider, errors.New("chat model is nil"))
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, Unavailable(provider, errors.Wrap(err, "failed to compile chat chain"))
	}

	return &Eino{provider: provider, chain: runnable}, nil
}

// Create binds cfg to a new session. The chain is stateless, so nothing is
// contacted until the first Send.
func (e *Eino) Create(_ context.Context, cfg persona.Config) (Session, error) {
	s := &einoSession{
		id:       uuid.NewString(),
		provider: e.provider,
		chain:    e.chain,
		cfg:      cfg,
	}
	log.Debug().Str("component", "backend").Str("provider", e.provider).
		Str("session", s.id).Msg("chat created")
	return s, nil
}

type einoSession struct {
	id       string
	provider string
	chain    compose.Runnable[map[string]any, *schema.Message]
	cfg      persona.Config
	history  []*schema.Message
}

func (s *einoSession) ID() string { return s.id }

func (s *einoSession) Send(ctx context.Context, text string) (string, error) {
	input := map[string]any{
		"system":  s.cfg.Instruction,
		"history": s.history,
		"query":   text,
	}

	resp, err := s.chain.Invoke(ctx, input, compose.WithChatModelOption(
		model.WithTemperature(s.cfg.Temperature),
		model.WithMaxTokens(s.cfg.MaxOutputTokens),
	))
	if err != nil {
		return "", CallFailed(s.provider, errors.Wrap(err, "failed to run chat chain"))
	}
	if resp == nil {
		return "", CallFailed(s.provider, errors.New("empty response: no message"))
	}

	// Failed exchanges are not recorded.
	s.history = append(s.history, schema.UserMessage(text), schema.AssistantMessage(resp.Content, nil))
	return resp.Content, nil
}
