package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for chat-api.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	PprofPort   int    `env:"PPROF_PORT" envDefault:"6060"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`
	// Optional read replica; routed through dbresolver when set.
	DatabaseReadURL string `env:"DATABASE_READ_URL"`

	// Inference endpoint (OpenAI-compatible)
	InferenceBaseURL   string        `env:"INFERENCE_BASE_URL" envDefault:"https://api.openai.com/v1"`
	InferenceAPIKey    string        `env:"INFERENCE_API_KEY"`
	EmbeddingModel     string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimension int           `env:"EMBEDDING_DIMENSION" envDefault:"1536"`
	GenerationModel    string        `env:"GENERATION_MODEL" envDefault:"gpt-4o-mini"`
	GenerationTimeout  time.Duration `env:"GENERATION_TIMEOUT" envDefault:"30s"`
	RetrievalTimeout   time.Duration `env:"RETRIEVAL_TIMEOUT" envDefault:"10s"`

	// Pipeline
	RetrievalTopK      int     `env:"RETRIEVAL_TOP_K" envDefault:"5"`
	ContextBudgetChars int     `env:"CONTEXT_BUDGET_CHARS" envDefault:"6000"`
	HistoryWindow      int     `env:"HISTORY_WINDOW" envDefault:"6"`
	RefuseThreshold    float64 `env:"CONFIDENCE_REFUSE_THRESHOLD" envDefault:"0.3"`
	EscalateThreshold  float64 `env:"CONFIDENCE_ESCALATE_THRESHOLD" envDefault:"0.6"`

	// Rate limiting (deployment-level ceilings; plans may override)
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitPerDay    int `env:"RATE_LIMIT_PER_DAY" envDefault:"500"`

	// Vector index persistence
	VectorDataDir string `env:"VECTOR_DATA_DIR" envDefault:"/var/lib/chat-api/vectorstore"`

	// Plan configuration
	PlanConfigFile string     `env:"PLAN_CONFIG_FILE"`
	Plans          *PlanTable `env:"-"`

	// Observability / Logging
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"chat-api"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"answerdesk"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RefuseThreshold < 0 || cfg.RefuseThreshold > 1 ||
		cfg.EscalateThreshold < 0 || cfg.EscalateThreshold > 1 {
		return nil, fmt.Errorf("confidence thresholds must be in [0,1], got refuse=%v escalate=%v",
			cfg.RefuseThreshold, cfg.EscalateThreshold)
	}
	if cfg.RefuseThreshold >= cfg.EscalateThreshold {
		return nil, fmt.Errorf("CONFIDENCE_REFUSE_THRESHOLD (%v) must be below CONFIDENCE_ESCALATE_THRESHOLD (%v)",
			cfg.RefuseThreshold, cfg.EscalateThreshold)
	}
	if cfg.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingDimension)
	}
	if cfg.RetrievalTopK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalTopK)
	}
	if cfg.RateLimitPerMinute <= 0 || cfg.RateLimitPerDay <= 0 {
		return nil, fmt.Errorf("rate limits must be positive, got per_minute=%d per_day=%d",
			cfg.RateLimitPerMinute, cfg.RateLimitPerDay)
	}

	plans, err := LoadPlanTable(strings.TrimSpace(cfg.PlanConfigFile))
	if err != nil {
		return nil, fmt.Errorf("load plan table: %w", err)
	}
	if err := plans.Validate(cfg); err != nil {
		return nil, fmt.Errorf("plan table: %w", err)
	}
	cfg.Plans = plans

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.EnvReloadedAt = time.Now()

	return cfg, nil
}

// Store holds the active configuration behind an atomic pointer so the
// pipeline can pick up reloaded values per request without a restart.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a Store seeded with cfg.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Get returns the active configuration snapshot.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Reload re-parses the environment and swaps the active configuration.
// A parse or validation failure leaves the previous configuration in place.
func (s *Store) Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	s.current.Store(cfg)
	return cfg, nil
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
