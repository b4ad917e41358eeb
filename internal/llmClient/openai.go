package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
)

// ChatCompletionsClient calls an OpenAI-compatible Chat Completions API.
// OpenAI and Groq are both served by it; only the base URL and key differ.
type ChatCompletionsClient struct {
	http     *http.Client
	provider string
	apiKey   string
	model    string
	baseURL  string

	rlMu      sync.RWMutex
	rlLast    RateLimitHeaders
	rlHasLast bool
	rlHandler RateLimitHeaderHandler
}

type ChatCompletionsConfig struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewChatCompletionsClient(cfg ChatCompletionsConfig) (*ChatCompletionsClient, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("chat completions: model is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = OpenAIBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		// Hard cap on a whole call, reading the stream body included.
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = "openai"
	}
	return &ChatCompletionsClient{
		http:     hc,
		provider: provider,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    model,
		baseURL:  base,
	}, nil
}

// NewGroqClient creates a Groq client. If apiKey is empty, it falls back to GROQ_API_KEY env var.
func NewGroqClient(apiKey, model string) (*ChatCompletionsClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("groq: GROQ_API_KEY is not set")
	}
	return NewChatCompletionsClient(ChatCompletionsConfig{
		Provider: "groq",
		APIKey:   apiKey,
		BaseURL:  firstNonEmpty(os.Getenv("GROQ_BASE_URL"), GroqBaseURL),
		Model:    model,
	})
}

// NewOpenAIClient creates an OpenAI client. If apiKey is empty, it falls back to OPENAI_API_KEY env var.
func NewOpenAIClient(apiKey, model string) (*ChatCompletionsClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY is not set")
	}
	return NewChatCompletionsClient(ChatCompletionsConfig{
		Provider: "openai",
		APIKey:   apiKey,
		BaseURL:  firstNonEmpty(os.Getenv("OPENAI_BASE_URL"), OpenAIBaseURL),
		Model:    model,
	})
}

func (c *ChatCompletionsClient) Name() string { return c.provider + ":" + c.model }
func (c *ChatCompletionsClient) Close() error { return nil }

func (c *ChatCompletionsClient) SetRateLimitHeaderHandler(handler RateLimitHeaderHandler) {
	c.rlMu.Lock()
	defer c.rlMu.Unlock()
	c.rlHandler = handler
}

func (c *ChatCompletionsClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	c.rlMu.RLock()
	defer c.rlMu.RUnlock()
	return c.rlLast, c.rlHasLast
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *ChatCompletionsClient) GenerateText(ctx context.Context, req Request) (string, error) {
	resp, err := c.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

// StreamText reads the server-sent event stream, forwarding each chunk's
// content delta. The completion id of the first chunk becomes the message id.
func (c *ChatCompletionsClient) StreamText(ctx context.Context, req Request, onDelta DeltaFunc) (Completion, error) {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	var (
		out  Completion
		text strings.Builder
		done bool
	)
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			done = true
			break
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return Completion{}, fmt.Errorf("%s: decode stream chunk: %w", c.provider, err)
		}
		if chunk.Error != nil {
			return Completion{}, fmt.Errorf("%s: stream error: %s", c.provider, firstNonEmpty(chunk.Error.Message, chunk.Error.Type, "unknown"))
		}
		if out.MessageID == "" {
			out.MessageID = chunk.ID
		}
		delta := ""
		if len(chunk.Choices) > 0 {
			delta = chunk.Choices[0].Delta.Content
		}
		text.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	if err := sc.Err(); err != nil {
		return Completion{}, fmt.Errorf("%s: read stream: %w", c.provider, err)
	}
	if !done {
		if text.Len() == 0 {
			return Completion{}, ErrEmptyResponse
		}
		return Completion{}, fmt.Errorf("%s: stream ended before [DONE]: %w", c.provider, io.ErrUnexpectedEOF)
	}
	out.Text = text.String()
	return out, nil
}

func (c *ChatCompletionsClient) do(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	body := chatReq{
		Model:       c.model,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: string(RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	if len(body.Messages) == 0 {
		return nil, NewPermanentError(ErrNoMessages)
	}
	b, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	c.observeRateLimitHeaders(resp.Header)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(raw) > max {
			raw = raw[:max]
		}
		err := fmt.Errorf("%s: unexpected status %s: %s", c.provider, resp.Status, string(raw))
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(raw), `"code":"context_length_exceeded"`) {
			return nil, NewPermanentError(err)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
			return nil, NewPermanentError(err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *ChatCompletionsClient) observeRateLimitHeaders(h http.Header) {
	parsed, ok := parseRateLimitHeaders(h)
	if !ok {
		return
	}
	c.rlMu.Lock()
	c.rlLast = parsed
	c.rlHasLast = true
	handler := c.rlHandler
	c.rlMu.Unlock()
	if handler != nil {
		handler(parsed)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// RegisterOpenAIModels registers the OpenAI chat models offered to users.
func RegisterOpenAIModels(reg ModelRegistrar) error {
	models := []struct {
		name          string
		noTemperature bool
	}{
		{name: "gpt-4o-mini"},
		{name: "gpt-4o"},
		{name: "o3-mini", noTemperature: true},
	}
	for _, m := range models {
		name := m.name
		if err := reg.RegisterModel(ModelRegistration{
			Provider:      "openai",
			Model:         name,
			NoTemperature: m.noTemperature,
			Factory: func(ctx context.Context) (LLMClient, error) {
				return NewOpenAIClient("", name)
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// RegisterGroqModels registers Groq-hosted models. Free-tier limits apply,
// which is why the distill models also run under the sequential strategy.
func RegisterGroqModels(reg ModelRegistrar) error {
	freeLimits := &RateLimitConfig{RPM: 30, RPS: 0.5, Burst: 1}
	for _, name := range []string{"deepseek-r1-distill-llama-70b", "llama-3.3-70b-versatile"} {
		name := name
		if err := reg.RegisterModel(ModelRegistration{
			Provider:  "groq",
			Model:     name,
			RateLimit: freeLimits,
			Factory: func(ctx context.Context) (LLMClient, error) {
				return NewGroqClient("", name)
			},
		}); err != nil {
			return err
		}
	}
	return nil
}
