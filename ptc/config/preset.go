package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// presetSchema constrains sampling preset files to known fields and sane
// ranges before they touch the generation settings.
const presetSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "max_tokens": {"type": "integer", "minimum": 1, "maximum": 2048},
    "temperature": {"type": "number", "minimum": 0, "maximum": 2},
    "top_p": {"type": "number", "minimum": 0, "maximum": 1},
    "top_k": {"type": "integer", "minimum": 0, "maximum": 1000},
    "repetition_penalty": {"type": "number", "minimum": 0, "maximum": 10},
    "stop": {"type": "array", "items": {"type": "string"}, "maxItems": 8}
  }
}`

// Preset overrides a subset of the generation settings. Pointer fields
// distinguish absent values from zero values.
type Preset struct {
	MaxTokens         *int     `json:"max_tokens,omitempty"`
	Temperature       *float32 `json:"temperature,omitempty"`
	TopP              *float32 `json:"top_p,omitempty"`
	TopK              *int     `json:"top_k,omitempty"`
	RepetitionPenalty *float32 `json:"repetition_penalty,omitempty"`
	Stop              []string `json:"stop,omitempty"`
}

// LoadPreset reads and validates a sampling preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}
	preset, err := ParsePreset(data)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	return preset, nil
}

// ParsePreset validates raw JSON against the preset schema and decodes it.
func ParsePreset(data []byte) (*Preset, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(presetSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validating preset: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resErr := range result.Errors() {
			details = append(details, resErr.String())
		}
		return nil, fmt.Errorf("invalid preset: %s", strings.Join(details, "; "))
	}

	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}
	return &preset, nil
}

// Apply copies the preset's set fields onto gen.
func (p *Preset) Apply(gen *GenerationConfig) {
	if p.MaxTokens != nil {
		gen.MaxTokens = *p.MaxTokens
	}
	if p.Temperature != nil {
		gen.Temperature = *p.Temperature
	}
	if p.TopP != nil {
		gen.TopP = *p.TopP
	}
	if p.TopK != nil {
		gen.TopK = *p.TopK
	}
	if p.RepetitionPenalty != nil {
		gen.RepetitionPenalty = *p.RepetitionPenalty
	}
	if len(p.Stop) > 0 {
		gen.Stop = append([]string(nil), p.Stop...)
	}
}
