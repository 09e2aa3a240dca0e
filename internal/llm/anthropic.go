package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"doclens/internal/prompt"
)

// ==========================================
// Anthropic Provider
// ==========================================

var anthropicCatalog = ModelCatalog{
	Default:   "claude-sonnet-4-6",
	Fallbacks: []string{"claude-opus-4-6", "claude-haiku-4-5", "claude-3-5-sonnet-20241022"},
	Discovery: []string{"claude-sonnet-4-6", "claude-opus-4-6", "claude-haiku-4-5", "claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022"},
}

type AnthropicProvider struct {
	client anthropic.Client
	apiKey string
}

func NewAnthropic(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		apiKey: apiKey,
	}
}

func (p *AnthropicProvider) Name() string          { return "anthropic" }
func (p *AnthropicProvider) Catalog() ModelCatalog { return anthropicCatalog }

func (p *AnthropicProvider) Generate(ctx context.Context, model string, pr *prompt.Prompt) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(pr.Parts))
	for _, part := range pr.Parts {
		if part.Data != nil {
			blocks = append(blocks, anthropic.NewImageBlockBase64(part.MIME, base64.StdEncoding.EncodeToString(part.Data)))
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(part.Text))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   4096,
		Temperature: anthropic.Float(0.1),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if pr.Instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: pr.Instruction}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err, model, MaskKey(p.apiKey))
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return sb.String(), nil
}
