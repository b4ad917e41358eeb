package llmclient

import "context"

type ClientFactory func(ctx context.Context) (LLMClient, error)

type RateLimitConfig struct {
	RPM   int
	RPD   int
	RPS   float64
	Burst int
}

type ModelRegistration struct {
	Provider string
	Model    string
	// NoTemperature marks models that reject a temperature parameter.
	NoTemperature bool
	RateLimit     *RateLimitConfig
	Factory       ClientFactory
}

type ModelRegistrar interface {
	RegisterModel(spec ModelRegistration) error
}
