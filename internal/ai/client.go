// Package ai wraps the OpenAI chat-completion API behind a small client used
// as the free-question fallback. The client is optional at runtime: without
// an API key every call reports ErrNotConfigured and the caller falls back to
// its canned reply. Errors never reach the end user.
package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("ai: api key not configured")

// ErrEmptyCompletion is returned when the API answered with no usable choice.
var ErrEmptyCompletion = errors.New("ai: empty completion")

// systemPrompt frames every completion. Uzbek on purpose, the audience is
// the Do'stlik district population.
const systemPrompt = `Sen "Do'stlik tumani AI Maslahatchisi"san.
Sen O'zbekiston, Jizzax viloyati, Do'stlik tumani aholisi uchun ishlaysan.

Vazifang:
- davlat xizmatlari
- nafaqa va yordamlar
- hujjat topshirish tartibi
bo'yicha ODDIY va TUSHUNARLI tilda tushuntirib berish.

Qoidalar:
1) Juda rasmiy gapirma, xalq tilida tushuntir
2) Qadam-qadam qilib yoz
3) Murakkab so'z ishlatma
4) Agar aniq ma'lumot bo'lmasa, "tegishli idoraga murojaat qiling" deb yoz
5) Har bir javob oxirida: "Agar xohlasangiz, yana savol berishingiz mumkin" deb yoz`

// Client calls the chat-completion endpoint with a fixed advisor persona.
type Client struct {
	api   *openai.Client
	model string
}

// New builds a Client. An empty apiKey yields a client whose Complete always
// returns ErrNotConfigured; baseURL overrides the API host when non-empty,
// which is also the test seam.
func New(apiKey, model, baseURL string) *Client {
	c := &Client{model: model}
	if apiKey == "" {
		return c
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool { return c.api != nil }

// Complete sends one question and returns the assistant's reply. The caller
// treats any error as "use the fallback text", so errors carry no user-facing
// detail.
func (c *Client) Complete(ctx context.Context, question string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		MaxTokens:   800,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyCompletion
	}
	return answer, nil
}
