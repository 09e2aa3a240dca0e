// Package llm wraps the remote multimodal model providers behind a single
// interface and layers model-fallback resolution on top. Providers take a
// fully assembled prompt and return plain text; everything above (source
// attribution, JSON recovery) happens in the answer package.
package llm

import (
	"context"
	"fmt"
	"strings"

	"doclens/internal/prompt"
)

// ==========================================
// Provider interface
// ==========================================

// ModelCatalog describes the models a provider exposes: the preferred
// default, the ordered fallback list walked when a model name is not
// available, and the discovery candidates probed as a last resort.
type ModelCatalog struct {
	Default   string   `json:"default"`
	Fallbacks []string `json:"fallbacks"`
	Discovery []string `json:"discovery"`
}

// Provider is one remote model backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model string, p *prompt.Prompt) (string, error)
	Catalog() ModelCatalog
}

// NewProvider creates the appropriate backend. Gemini is the default when
// the name is empty.
func NewProvider(providerName, apiKey string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "gemini", "":
		return NewGemini(apiKey), nil
	case "openai":
		return NewOpenAI(apiKey), nil
	case "anthropic":
		return NewAnthropic(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", providerName)
	}
}

// Catalogs lists every supported provider's model table, keyed by the
// provider name NewProvider accepts.
func Catalogs() map[string]ModelCatalog {
	return map[string]ModelCatalog{
		"gemini":    geminiCatalog,
		"openai":    openaiCatalog,
		"anthropic": anthropicCatalog,
	}
}

// ==========================================
// Key masking
// ==========================================

// MaskKey renders an API key safe for logs and user-facing messages:
// first and last four characters only.
func MaskKey(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
