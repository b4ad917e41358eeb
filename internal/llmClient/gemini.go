package llmclient

import (
	"context"
	"os"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) GenerateText(ctx context.Context, req Request) (string, error) {
	contents, cfg, err := g.build(req)
	if err != nil {
		return "", err
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	txt := responseText(resp)
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}

func (g *GeminiClient) StreamText(ctx context.Context, req Request, onDelta DeltaFunc) (Completion, error) {
	contents, cfg, err := g.build(req)
	if err != nil {
		return Completion{}, err
	}
	var text strings.Builder
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			return Completion{}, err
		}
		delta := responseText(resp)
		text.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	if text.Len() == 0 {
		return Completion{}, ErrEmptyResponse
	}
	return Completion{Text: text.String()}, nil
}

func (g *GeminiClient) build(req Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	if len(contents) == 0 {
		return nil, nil, NewPermanentError(ErrNoMessages)
	}
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	return contents, cfg, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func RegisterGeminiModels(reg ModelRegistrar) error {
	freeLimits := &RateLimitConfig{RPM: 15, RPS: 0.25, Burst: 1}
	for _, name := range []string{"gemini-2.5-flash", "gemini-2.5-pro"} {
		name := name
		if err := reg.RegisterModel(ModelRegistration{
			Provider:  "gemini",
			Model:     name,
			RateLimit: freeLimits,
			Factory: func(ctx context.Context) (LLMClient, error) {
				return NewGeminiClient(ctx, "", name)
			},
		}); err != nil {
			return err
		}
	}
	return nil
}
