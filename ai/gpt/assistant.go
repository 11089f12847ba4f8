package gpt

import (
	"TgFlow/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel = openai.GPT4oMini
	// turns kept per chat, one turn is a question and its answer
	defaultHistory = 6
)

var ErrEmptyAnswer = errors.New("assistant returned no choices")

// Completer is the part of the OpenAI client the assistant needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Assistant struct {
	client  Completer
	model   string
	prompt  string
	history int
	mu      sync.Mutex
	threads map[int64][]openai.ChatCompletionMessage
	log     *slog.Logger
}

type Option func(*Assistant)

func WithModel(model string) Option {
	return func(a *Assistant) {
		if model != "" {
			a.model = model
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Assistant) {
		a.prompt = prompt
	}
}

func WithHistory(turns int) Option {
	return func(a *Assistant) {
		if turns >= 0 {
			a.history = turns
		}
	}
}

// New wraps an existing completer, use NewOpenAI for a client built from an api key.
func New(client Completer, logger *slog.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		client:  client,
		model:   defaultModel,
		prompt:  "You are a concise assistant inside a Telegram bot. Answer in the language of the question.",
		history: defaultHistory,
		threads: make(map[int64][]openai.ChatCompletionMessage),
		log:     logger.With(sl.Module("gpt")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func NewOpenAI(apiKey string, logger *slog.Logger, opts ...Option) *Assistant {
	return New(openai.NewClient(apiKey), logger, opts...)
}

// Ask sends the question together with the chat's recent turns and returns the answer text.
func (a *Assistant) Ask(ctx context.Context, chatID int64, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	messages := a.conversation(chatID, question)
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		a.log.With(sl.Chat(chatID), sl.Err(err)).Error("chat completion")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.remember(chatID, question, answer)

	a.log.With(
		sl.Chat(chatID),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
	).Debug("answered")
	return answer, nil
}

// Forget drops the stored turns of a chat.
func (a *Assistant) Forget(chatID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.threads, chatID)
}

func (a *Assistant) conversation(chatID int64, question string) []openai.ChatCompletionMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	thread := a.threads[chatID]
	messages := make([]openai.ChatCompletionMessage, 0, len(thread)+2)
	if a.prompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: a.prompt})
	}
	messages = append(messages, thread...)
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})
}

func (a *Assistant) remember(chatID int64, question, answer string) {
	if a.history == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	thread := append(a.threads[chatID],
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: answer},
	)
	if limit := a.history * 2; len(thread) > limit {
		thread = append([]openai.ChatCompletionMessage(nil), thread[len(thread)-limit:]...)
	}
	a.threads[chatID] = thread
}
