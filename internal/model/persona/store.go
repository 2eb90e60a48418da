package persona

import (
	"github.com/pkg/errors"
)

// Store exposes persona retrieval for hosts.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// NewValidatedStore is NewMemoryStore for personas from untrusted sources:
// every ID must be unique and non-empty and every Config must validate.
func NewValidatedStore(items []Persona) (*MemoryStore, error) {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, errors.Errorf("persona #%d has no id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, errors.Errorf("duplicate persona id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		if err := item.Config.Validate(); err != nil {
			return nil, errors.Wrapf(err, "persona %q", item.ID)
		}
	}
	return NewMemoryStore(items), nil
}

// List returns the registered personas in registration order.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}
