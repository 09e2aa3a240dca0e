package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"doclens/internal/prompt"
)

// ==========================================
// OpenAI Provider
// ==========================================

var openaiCatalog = ModelCatalog{
	Default:   openai.GPT4o,
	Fallbacks: []string{openai.GPT4oMini, openai.GPT4Turbo, openai.GPT3Dot5Turbo},
	Discovery: []string{openai.GPT4o, openai.GPT4oMini, openai.GPT4Turbo, openai.GPT3Dot5Turbo},
}

type OpenAIProvider struct {
	client *openai.Client
	apiKey string
}

func NewOpenAI(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), apiKey: apiKey}
}

func (p *OpenAIProvider) Name() string          { return "openai" }
func (p *OpenAIProvider) Catalog() ModelCatalog { return openaiCatalog }

func (p *OpenAIProvider) Generate(ctx context.Context, model string, pr *prompt.Prompt) (string, error) {
	var messages []openai.ChatCompletionMessage
	if pr.Instruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: pr.Instruction,
		})
	}

	if hasBinaryParts(pr) {
		// Vision requests need the multi-part message shape; images ride
		// along as data URLs.
		content := make([]openai.ChatMessagePart, 0, len(pr.Parts))
		for _, part := range pr.Parts {
			if part.Data != nil {
				content = append(content, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:" + part.MIME + ";base64," + base64.StdEncoding.EncodeToString(part.Data),
					},
				})
				continue
			}
			content = append(content, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: content,
		})
	} else {
		var sb strings.Builder
		for _, part := range pr.Parts {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(part.Text)
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: sb.String(),
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.1,
	})
	if err != nil {
		return "", classify(err, model, MaskKey(p.apiKey))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

func hasBinaryParts(pr *prompt.Prompt) bool {
	for _, part := range pr.Parts {
		if part.Data != nil {
			return true
		}
	}
	return false
}
