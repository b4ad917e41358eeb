package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Env          string
	DatabaseURL  string
	DefaultModel string
	// EnableFakeModel registers the offline "fake" model.
	EnableFakeModel  bool
	PerspectivesPath string
	Pipeline         PipelineConfig
	RateLimit        RateLimitConfig
	MessageCacheSize int
	Trace            TraceConfig
}

type PipelineConfig struct {
	Temperature float32
	MaxParallel int
	// Delay and HeavyDelay override the sequential strategy backoffs.
	Delay      time.Duration
	HeavyDelay time.Duration
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// TraceConfig locates the object store used to archive run traces.
type TraceConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env, the -port flag and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()
	return FromEnv(*port), nil
}

// FromEnv builds the configuration from the environment only. defaultPort is
// used when PORT is unset.
func FromEnv(defaultPort string) *Config {
	port := defaultPort
	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}
	local := strings.EqualFold(env, "local")

	return &Config{
		Port:             port,
		Env:              env,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DefaultModel:     firstNonEmpty(strings.TrimSpace(os.Getenv("PRISM_DEFAULT_MODEL")), "gpt-4o-mini"),
		EnableFakeModel:  envBool("PRISM_ENABLE_FAKE_MODEL", local),
		PerspectivesPath: strings.TrimSpace(os.Getenv("PRISM_PERSPECTIVES_FILE")),
		Pipeline: PipelineConfig{
			Temperature: float32(envFloat("PRISM_TEMPERATURE", 0.2)),
			MaxParallel: envInt("PRISM_MAX_PARALLEL", 0),
			Delay:       envDuration("PRISM_SEQUENTIAL_DELAY", 5*time.Second),
			HeavyDelay:  envDuration("PRISM_SEQUENTIAL_HEAVY_DELAY", 15*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:  envInt("RATE_LIMIT_MAX_REQUESTS", 100),
			Window: envDuration("RATE_LIMIT_WINDOW", 24*time.Hour),
		},
		MessageCacheSize: envInt("MESSAGE_CACHE_SIZE", 1024),
		Trace:            loadTraceConfig(env),
	}
}

// CanUseS3 reports whether the S3 settings are complete enough to connect.
func (c TraceConfig) CanUseS3() bool {
	return c.Enabled &&
		strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

func loadTraceConfig(env string) TraceConfig {
	endpoint := strings.TrimSpace(os.Getenv("TRACE_S3_ENDPOINT"))
	local := strings.EqualFold(strings.TrimSpace(env), "local")
	if local && endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv("TRACE_MINIO_ENDPOINT"))
	}
	return TraceConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_BUCKET")), "prism-traces"),
		UseSSL:    !local && envBool("TRACE_S3_USE_SSL", true),
	}
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
