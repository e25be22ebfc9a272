package assistant

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"wa-nutrition-bot/internal/domain"
	openai "wa-nutrition-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const systemPrompt = "Você é a Kali, assistente de nutrologia. " +
	"Fale em português, de forma breve, empática e profissional. " +
	"Evite diagnósticos, mas explique de forma educativa. " +
	"Convide o paciente para uma avaliação quando fizer sentido."

const imagePrompt = "Descreva a refeição da foto e estime as calorias de cada item. " +
	"Responda em português, de forma breve, e deixe claro que é uma estimativa."

// OpenAI produces conversational replies through Chat Completions. Shortcut
// phrases are answered from the quick-intent table without calling the model.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
}

var _ domain.Replier = (*OpenAI)(nil)

// NewOpenAI creates the replier.
func NewOpenAI(client chatClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

// Reply answers a free-text message, feeding the short per-sender history
// window back to the model.
func (a *OpenAI) Reply(ctx context.Context, text string, history []domain.ChatTurn) (string, error) {
	if reply, ok := QuickIntent(text); ok {
		return reply, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	messages := make([]openai.ChatMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		role := openai.RoleUser
		if turn.Role == domain.TurnAssistant {
			role = openai.RoleAssistant
		}
		messages = append(messages, openai.ChatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: text})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.5,
		MaxTokens:   250,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("assistant reply: %w", err)
	}
	return firstChoice(resp)
}

// DescribeImage asks the model to describe a meal photo and estimate its
// calories, passing the image inline as a data URL.
func (a *OpenAI) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 300,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{
				Role: openai.RoleUser,
				Parts: []openai.ChatContentPart{
					{Type: openai.PartTypeText, Text: imagePrompt},
					{Type: openai.PartTypeImageURL, ImageURL: &openai.ChatImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("assistant describe image: %w", err)
	}
	return firstChoice(resp)
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("assistant: empty completion")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("assistant: blank completion")
	}
	return content, nil
}
