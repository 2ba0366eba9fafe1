package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LLMConfig holds connection settings for an OpenAI-compatible chat model.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMClient implements TextOracle over the chat completions API.
type LLMClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewLLMClient creates a text oracle backed by a chat model. Temperature is
// pinned to zero; classification must be repeatable.
func NewLLMClient(cfg LLMConfig) *LLMClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}
}

// Classify sends the instruction as the system prompt and the input data as
// the user message, returning the raw response text.
func (c *LLMClient) Classify(ctx context.Context, input, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var (
	fencedJSONRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	braceJSONRe  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls a JSON object out of a model response. It tries the raw
// text, then a fenced code block, then the widest brace-delimited span.
func ExtractJSON(response string, out any) error {
	response = strings.TrimSpace(response)
	if err := json.Unmarshal([]byte(response), out); err == nil {
		return nil
	}
	if m := fencedJSONRe.FindStringSubmatch(response); len(m) > 1 {
		if err := json.Unmarshal([]byte(m[1]), out); err == nil {
			return nil
		}
	}
	if m := braceJSONRe.FindString(response); m != "" {
		if err := json.Unmarshal([]byte(m), out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no parsable JSON in response %q", truncate(response, 120))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
