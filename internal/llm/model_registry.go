package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	llmclient "prism/internal/llmClient"
)

// ErrUnknownModel is returned when a model id has no registration.
var ErrUnknownModel = errors.New("unknown model")

// ConfigurationError reports a model that cannot be used: it is not
// registered, or its provider could not be constructed (missing API key).
// It is raised before any model call is made.
type ConfigurationError struct {
	Model string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("model %q: %v", e.Model, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ModelProfile is the public description of a registered model.
type ModelProfile struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	NoTemperature bool   `json:"noTemperature,omitempty"`
}

type registeredModel struct {
	spec   llmclient.ModelRegistration
	client llmclient.LLMClient
}

// Catalog holds model registrations and lazily builds one wrapped client per
// model. The shared middlewares are applied outermost, per-model rate limits
// innermost.
type Catalog struct {
	mu     sync.Mutex
	models map[string]*registeredModel
	shared []Middleware
}

var _ llmclient.ModelRegistrar = (*Catalog)(nil)

func NewCatalog(shared ...Middleware) *Catalog {
	return &Catalog{
		models: make(map[string]*registeredModel),
		shared: shared,
	}
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}

// RegisterModel adds a model. Registering the same model id twice is an error.
func (c *Catalog) RegisterModel(spec llmclient.ModelRegistration) error {
	key := normalizeModel(spec.Model)
	if key == "" {
		return fmt.Errorf("model registration: empty model id")
	}
	if spec.Factory == nil {
		return fmt.Errorf("model registration %s: nil factory", spec.Model)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.models[key]; dup {
		return fmt.Errorf("model registration %s: already registered", spec.Model)
	}
	c.models[key] = &registeredModel{spec: spec}
	return nil
}

// Has reports whether model is registered.
func (c *Catalog) Has(model string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.models[normalizeModel(model)]
	return ok
}

// Models lists registered models sorted by provider then model id.
func (c *Catalog) Models() []ModelProfile {
	c.mu.Lock()
	out := make([]ModelProfile, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, ModelProfile{
			Provider:      m.spec.Provider,
			Model:         m.spec.Model,
			NoTemperature: m.spec.NoTemperature,
		})
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// Resolve returns the client for model, building it on first use.
// Failures are reported as *ConfigurationError.
func (c *Catalog) Resolve(ctx context.Context, model string) (llmclient.LLMClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.models[normalizeModel(model)]
	if !ok {
		return nil, &ConfigurationError{Model: model, Err: ErrUnknownModel}
	}
	if m.client != nil {
		return m.client, nil
	}
	base, err := m.spec.Factory(ctx)
	if err != nil {
		return nil, &ConfigurationError{Model: model, Err: err}
	}
	m.client = Wrap(base, c.middlewaresFor(m.spec)...)
	return m.client, nil
}

func (c *Catalog) middlewaresFor(spec llmclient.ModelRegistration) []Middleware {
	mws := append([]Middleware{}, c.shared...)
	if spec.NoTemperature {
		mws = append(mws, WithoutTemperature())
	}
	if rl := spec.RateLimit; rl != nil {
		if rl.RPM > 0 || rl.RPD > 0 {
			mws = append(mws, MultiLimit(rl.RPM, rl.RPD))
		}
		if rl.RPS > 0 {
			mws = append(mws, RateLimit(rl.RPS, rl.Burst))
		}
	}
	return append(mws, RespectRateLimitSignals(nil))
}

// Close closes every client built so far.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, m := range c.models {
		if m.client == nil {
			continue
		}
		if err := m.client.Close(); err != nil {
			errs = append(errs, err)
		}
		m.client = nil
	}
	return errors.Join(errs...)
}

// RegisterDefaultModels registers every provider model known to the gateway.
func RegisterDefaultModels(reg llmclient.ModelRegistrar) error {
	for _, fn := range []func(llmclient.ModelRegistrar) error{
		llmclient.RegisterOpenAIModels,
		llmclient.RegisterGroqModels,
		llmclient.RegisterGeminiModels,
	} {
		if err := fn(reg); err != nil {
			return err
		}
	}
	return nil
}
