package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	model          = "claude-3-haiku-20240307"
	maxTokens      = 256
)

// NoCommand is returned by the model when a message holds no usable instruction.
const NoCommand = "NONE"

// Client defines the interface for AI text processing.
type Client interface {
	TranslateToCommand(ctx context.Context, input string) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client. An empty baseURL targets the public API.
func NewClient(apiKey, baseURL string) Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = `You turn messages from factory line supervisors into one command.

Commands:
/declare <week> <day> <line> <reference> <declared> [modified]
/stats <week> <line>
/help

Rules:
- week is written semaineNN, for example semaine07 or semaine47.
- day is one of lundi, mardi, mercredi, jeudi, vendredi, samedi.
- line and reference are copied exactly as written by the supervisor.
- declared and modified are whole numbers; add modified only when the supervisor changes the target quantity.
- Reply with the command only, on one line, without explanation.
- If the message cannot be turned into a command, reply NONE.`

// TranslateToCommand asks the model for the slash command matching input.
// It returns "" when the model finds no command.
func (c *anthropicClient) TranslateToCommand(ctx context.Context, input string) (string, error) {
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []Message{{Role: "user", Content: input}},
	}

	var respBody messageResponse
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&apiErr).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: status=%d type=%s message=%s", resp.StatusCode(), apiErr.Error.Type, apiErr.Error.Message)
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return normalizeCommand(respBody.Content[0].Text), nil
}

// normalizeCommand keeps the first line of the model output that starts with a slash.
func normalizeCommand(text string) string {
	text = strings.Trim(strings.TrimSpace(text), "`")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == NoCommand {
			return ""
		}
		if strings.HasPrefix(line, "/") {
			return line
		}
	}
	return ""
}
