package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartonline/quotebot/internal/metrics"
	"github.com/cartonline/quotebot/internal/store"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	maxReplyTokens = 300
	temperature    = 0.3
)

// completer is the part of the OpenAI client the assistant uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// History persists per-phone conversation turns.
type History interface {
	GetHistory(phone string) ([]store.ConversationTurn, error)
	SaveHistory(phone string, turns []store.ConversationTurn) error
}

// Assistant produces free-form replies for messages that are not quote requests.
type Assistant struct {
	client  completer
	model   string
	history History
	logger  *zap.Logger
	now     func() time.Time
}

func NewAssistant(apiKey, model string, h History, logger *zap.Logger) *Assistant {
	return &Assistant{
		client:  openai.NewClient(apiKey),
		model:   model,
		history: h,
		logger:  logger,
		now:     time.Now,
	}
}

// Reply answers text in the context of the phone's earlier conversation.
func (a *Assistant) Reply(ctx context.Context, phone, text string) (string, error) {
	history, err := a.history.GetHistory(phone)
	if err != nil {
		a.logger.Warn("assistant: failed to load history", zap.Error(err))
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: BuildSystemPrompt(),
	}}
	messages = append(messages, toOpenAIMessages(history)...)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   maxReplyTokens,
		Temperature: temperature,
	})
	metrics.ObserveCall("openai_completion", start, err)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", Classify(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("chat completion returned an empty reply")
	}

	at := a.now()
	history = append(history,
		store.ConversationTurn{Role: openai.ChatMessageRoleUser, Text: text, At: at},
		store.ConversationTurn{Role: openai.ChatMessageRoleAssistant, Text: reply, At: at},
	)
	if err := a.history.SaveHistory(phone, history); err != nil {
		a.logger.Warn("assistant: failed to save history", zap.Error(err))
	}
	return reply, nil
}

// toOpenAIMessages converts stored turns, dropping roles the API would reject.
func toOpenAIMessages(turns []store.ConversationTurn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
			if t.Text != "" {
				messages = append(messages, openai.ChatCompletionMessage{Role: t.Role, Content: t.Text})
			}
		}
	}
	return messages
}
