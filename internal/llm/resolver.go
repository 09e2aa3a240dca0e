package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"doclens/internal/prompt"
)

// ==========================================
// Model resolution
// ==========================================

// probePrompt is the minimal request used to test whether a model
// responds at all during discovery.
func probePrompt() *prompt.Prompt {
	return &prompt.Prompt{Parts: []prompt.Part{{Text: "Reply with OK."}}}
}

// Resolve submits a prompt to the provider, walking its fallback list and
// then its discovery candidates when the requested model turns out to be
// unavailable. It returns the model that actually answered so the caller
// can adopt it for the rest of the session; nothing is mutated here.
//
// Errors other than "model not found" on the requested model are
// surfaced immediately since retrying a bad key or an exhausted quota
// against other model names cannot help.
func Resolve(ctx context.Context, p Provider, model string, pr *prompt.Prompt) (string, string, error) {
	catalog := p.Catalog()
	if model == "" {
		model = catalog.Default
	}

	text, err := p.Generate(ctx, model, pr)
	if err == nil {
		return model, text, nil
	}
	if !errors.Is(err, ErrModelNotFound) {
		return model, "", err
	}

	log.Printf("Model %q unavailable for provider %s, walking fallbacks", model, p.Name())
	lastErr := err
	for _, alt := range catalog.Fallbacks {
		if alt == model {
			continue
		}
		if ctx.Err() != nil {
			return model, "", ctx.Err()
		}
		altText, altErr := p.Generate(ctx, alt, pr)
		if altErr == nil {
			log.Printf("Fallback model %q answered, adopting it for this session", alt)
			return alt, altText, nil
		}
		lastErr = altErr
	}

	log.Printf("All fallback models failed for provider %s, probing for any working model", p.Name())
	for _, cand := range catalog.Discovery {
		if cand == model {
			continue
		}
		if ctx.Err() != nil {
			return model, "", ctx.Err()
		}
		if _, probeErr := p.Generate(ctx, cand, probePrompt()); probeErr != nil {
			continue
		}
		log.Printf("Probe found working model %q, resubmitting the original prompt", cand)
		candText, candErr := p.Generate(ctx, cand, pr)
		if candErr != nil {
			return cand, "", candErr
		}
		return cand, candText, nil
	}

	return model, "", terminalErr(p, model, lastErr)
}

// terminalErr is returned when no model on the provider answered. It
// names the likely causes so the user can act instead of retrying.
func terminalErr(p Provider, model string, lastErr error) error {
	catalog := p.Catalog()
	return fmt.Errorf(
		"no %s model responded (tried %s, then %s, then a discovery probe). Likely causes: an invalid API key, a key without access to these models, or exhausted quota. Last error: %v",
		p.Name(), model, strings.Join(catalog.Fallbacks, ", "), lastErr)
}
