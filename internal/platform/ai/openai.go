package ai

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "Bạn là trợ lý lâm sàng cho bác sĩ phòng khám. " +
	"Trả lời ngắn gọn. Khi đưa ra gợi ý, ghi rõ các mục " +
	"\"Chẩn đoán:\", \"Lời dặn:\" và \"Thuốc:\" với mỗi thuốc trên một dòng " +
	"dạng \"- Tên thuốc: cách dùng\"."

// OpenAIClient is the alternative assistant backend. The OpenAI API is
// stateless, so conversational context is kept here per session id.
type OpenAIClient struct {
	client *openai.Client
	model  string

	mu       sync.Mutex
	sessions map[string][]openai.ChatCompletionMessage
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{
		client:   openai.NewClient(apiKey),
		model:    model,
		sessions: make(map[string][]openai.ChatCompletionMessage),
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, sessionID, input string) (string, error) {
	c.mu.Lock()
	history, ok := c.sessions[sessionID]
	if !ok {
		history = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		}
	}
	messages := append(append([]openai.ChatCompletionMessage{}, history...),
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input})
	c.mu.Unlock()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	reply := resp.Choices[0].Message.Content

	c.mu.Lock()
	c.sessions[sessionID] = append(messages,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply})
	c.mu.Unlock()

	return reply, nil
}

// Forget drops the stored context for a session. Called when a conversation
// panel is torn down so abandoned sessions do not accumulate.
func (c *OpenAIClient) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}
