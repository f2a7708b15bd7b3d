package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/pathfinder/internal/providers"
)

// DefaultBaseURL is the hosted chat relay the service talks to by default
const DefaultBaseURL = "https://duckduckgo-chat-api-production.up.railway.app"

// ChatAPI is a provider for a simple chat relay: POST {base}/chat/{model}
// with {"message": ...} and a User-ID header, answering {"response": ...}.
type ChatAPI struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a new chat relay provider
func New(baseURL string, httpClient *http.Client) *ChatAPI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ChatAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Complete sends the prompt and returns the relay's free-form reply
func (c *ChatAPI) Complete(ctx context.Context, config providers.Config) (string, error) {
	model := config.Model
	if model == "" {
		model = providers.DefaultModel(providers.ChatAPI)
	}
	url := c.baseURL + "/chat/" + model

	requestBody, err := json.Marshal(map[string]string{
		"message": config.Prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-ID", config.UserID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("chat API error: %s", statusText(resp))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return response.Response, nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
