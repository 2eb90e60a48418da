// Package app assembles the services shared by the entrypoints.
package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/chat"
)

// LoadPersonas returns the persona registry: the file named by cfg when set,
// the built-in personas otherwise.
func LoadPersonas(cfg *config.Config) (persona.Store, error) {
	if cfg.PersonaFile == "" {
		return persona.NewValidatedStore(persona.Seed())
	}
	store, err := persona.LoadFile(cfg.PersonaFile)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.PersonaFile).Int("personas", len(store.List())).Msg("loaded personas")
	return store, nil
}

// NewChatService builds the backend and persona registry and wires them into
// a conversation service. Every failure here is fatal for the process.
func NewChatService(ctx context.Context, cfg *config.Config) (*chat.Service, error) {
	personas, err := LoadPersonas(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load personas")
	}

	be, err := cfg.Backend.NewBackend(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialise %s backend", cfg.Backend.Provider)
	}
	log.Info().Str("provider", cfg.Backend.Provider).Msg("backend initialised")

	return chat.NewService(be, personas), nil
}
