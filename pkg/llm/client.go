package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrBackendUnavailable reports that the model backend is unreachable or
// rejected the request. Fatal to the pipeline instance using it.
var ErrBackendUnavailable = errors.New("model backend unavailable")

const chatTimeout = 90 * time.Second

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client speaks the OpenAI-compatible chat-completion protocol, any backend
// exposing it works with a base url, api key and model name.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	Cli *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Cli: &http.Client{
			Timeout: chatTimeout,
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// Chat submits the messages and returns the assistant text.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	res, err := c.Cli.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrBackendUnavailable, res.StatusCode)
	}

	content := gjson.GetBytes(resBody, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("%w: response without content", ErrBackendUnavailable)
	}

	return content.String(), nil
}
