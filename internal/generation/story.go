package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StoryClient generates character backstories through an OpenAI-compatible
// chat-completions endpoint.
type StoryClient struct {
	httpClient *http.Client
	token      string
	baseURL    string
	model      string
}

func NewStoryClient(token, baseURL, model string) *StoryClient {
	return &StoryClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *StoryClient) GenerateStory(ctx context.Context, prompt string) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("story: API token not configured")
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a creative writer who writes engaging character backstories."},
			{Role: "user", Content: prompt + "\n\nWrite a creative and engaging backstory:"},
		},
		MaxTokens:   150,
		Temperature: 0.7,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("story: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("story: upstream error: %w", err)
	}
	defer resp.Body.Close()

	slurp, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("story: reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("story: status %d: %s", resp.StatusCode, truncate(string(slurp), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(slurp, &out); err != nil {
		return "", fmt.Errorf("story: invalid JSON response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("story: no choices in response")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
