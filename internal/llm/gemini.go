package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"doclens/internal/prompt"
)

// ==========================================
// Gemini Provider
// ==========================================

var geminiCatalog = ModelCatalog{
	Default:   "gemini-2.5-flash",
	Fallbacks: []string{"gemini-2.5-pro", "gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-1.5-flash"},
	Discovery: []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-1.5-flash", "gemini-1.5-pro"},
}

// GeminiProvider talks to the Gemini API. The underlying client is
// created lazily on first use because construction needs a context.
type GeminiProvider struct {
	apiKey string

	mu     sync.Mutex
	client *genai.Client
}

func NewGemini(apiKey string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey}
}

func (p *GeminiProvider) Name() string          { return "gemini" }
func (p *GeminiProvider) Catalog() ModelCatalog { return geminiCatalog }

func (p *GeminiProvider) ensureClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, model string, pr *prompt.Prompt) (string, error) {
	client, err := p.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]*genai.Part, 0, len(pr.Parts))
	for _, part := range pr.Parts {
		if part.Data != nil {
			parts = append(parts, genai.NewPartFromBytes(part.Data, part.MIME))
			continue
		}
		parts = append(parts, genai.NewPartFromText(part.Text))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if pr.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(pr.Instruction, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", classify(err, model, MaskKey(p.apiKey))
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return sb.String(), nil
}
