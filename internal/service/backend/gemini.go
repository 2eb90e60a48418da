package backend

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

const (
	ProviderGemini     = "gemini"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiConfig configures the Gemini API client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Gemini opens chats on the Gemini API. One client serves every session.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Backend = (*Gemini)(nil)

// NewGemini builds the shared API client. A missing key or an unusable client
// configuration is reported as *UnavailableError.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, Unavailable(ProviderGemini, errors.New("API key is required"))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, Unavailable(ProviderGemini, errors.Wrap(err, "failed to create client"))
	}

	return &Gemini{client: client, model: model}, nil
}

// Create opens a chat whose system instruction and generation config are
// fixed for its lifetime.
func (g *Gemini) Create(ctx context.Context, cfg persona.Config) (Session, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cfg.Instruction, genai.RoleUser),
		Temperature:       genai.Ptr(cfg.Temperature),
		MaxOutputTokens:   int32(cfg.MaxOutputTokens),
	}, nil)
	if err != nil {
		return nil, Unavailable(ProviderGemini, errors.Wrap(err, "failed to create chat"))
	}

	s := &geminiSession{id: uuid.NewString(), chat: chat}
	log.Debug().Str("component", "backend").Str("provider", ProviderGemini).
		Str("session", s.id).Str("model", g.model).Msg("chat created")
	return s, nil
}

type geminiSession struct {
	id   string
	chat *genai.Chat
}

func (s *geminiSession) ID() string { return s.id }

func (s *geminiSession) Send(ctx context.Context, text string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", CallFailed(ProviderGemini, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return "", CallFailed(ProviderGemini, errors.New("empty response: "+reason))
	}
	return resp.Text(), nil
}
