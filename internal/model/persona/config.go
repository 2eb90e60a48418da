package persona

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidConfig matches every ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid persona config")

// ConfigError reports a persona parameter outside its allowed range.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid persona config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Config binds a system instruction to the generation parameters sent with
// every new backend session. It is a value type; copies never alias.
type Config struct {
	Instruction     string  `json:"instruction" yaml:"instruction"`
	Temperature     float32 `json:"temperature" yaml:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens" yaml:"max_output_tokens"`
	// EmptyReply replaces a reply the backend returned without any text.
	EmptyReply string `json:"emptyReply,omitempty" yaml:"empty_reply,omitempty"`
}

// NewConfig builds a validated Config.
func NewConfig(instruction string, temperature float32, maxOutputTokens int) (Config, error) {
	cfg := Config{
		Instruction:     instruction,
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the instruction and generation parameter ranges.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Instruction) == "" {
		return &ConfigError{Field: "instruction", Reason: "must not be empty"}
	}
	t := float64(c.Temperature)
	if math.IsNaN(t) || t < 0 || t > 1 {
		return &ConfigError{Field: "temperature", Reason: fmt.Sprintf("%v outside [0,1]", c.Temperature)}
	}
	if c.MaxOutputTokens <= 0 {
		return &ConfigError{Field: "max_output_tokens", Reason: fmt.Sprintf("%d must be positive", c.MaxOutputTokens)}
	}
	return nil
}
