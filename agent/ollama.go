package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/colloquy-ai/colloquy/core/protocol"
)

// OllamaConfig holds connection settings for a local Ollama server.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaAgent implements Agent against the Ollama chat API in batch mode
// with tool calling.
type OllamaAgent struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an OllamaAgent. Empty settings fall back to the local
// default endpoint and the mistral model.
func NewOllama(cfg OllamaConfig) *OllamaAgent {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &OllamaAgent{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []protocol.Message `json:"messages"`
	Tools    []ollamaTool       `json:"tools,omitempty"`
	Stream   bool               `json:"stream"`
}

type ollamaTool struct {
	Type     string        `json:"type"`
	Function protocol.Tool `json:"function"`
}

type ollamaChatResponse struct {
	Message struct {
		Role      protocol.Role       `json:"role"`
		Content   string              `json:"content"`
		ToolCalls []protocol.ToolCall `json:"tool_calls"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Chat sends the conversation and tool specs to Ollama and returns its
// decision.
func (a *OllamaAgent) Chat(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (*Reply, error) {
	reqBody := ollamaChatRequest{
		Model:    a.model,
		Messages: messages,
		Stream:   false,
	}
	for _, t := range tools {
		reqBody.Tools = append(reqBody.Tools, ollamaTool{Type: "function", Function: t})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, detail)
	}

	var decoded ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("chat API error: %s", decoded.Error)
	}

	return &Reply{
		Content:   decoded.Message.Content,
		ToolCalls: decoded.Message.ToolCalls,
	}, nil
}
