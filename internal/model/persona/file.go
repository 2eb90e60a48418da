package persona

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type fileFormat struct {
	Personas []Persona `yaml:"personas"`
}

// Decode reads a YAML persona registry:
//
//	personas:
//	  - id: terse
//	    name: Terse Bot
//	    config:
//	      instruction: be terse
//	      temperature: 0.2
//	      max_output_tokens: 64
func Decode(r io.Reader) (*MemoryStore, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fileFormat
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("persona file is empty")
		}
		return nil, errors.Wrap(err, "failed to decode persona file")
	}
	if len(f.Personas) == 0 {
		return nil, errors.New("persona file defines no personas")
	}
	return NewValidatedStore(f.Personas)
}

// LoadFile reads and validates a YAML persona registry from path.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read persona file %s", path)
	}
	store, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "persona file %s", path)
	}
	return store, nil
}
