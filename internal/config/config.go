// Package config loads OpenMemory's environment-configured knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MetadataBackend selects the Store implementation.
type MetadataBackend string

const (
	MetadataBackendSQLite   MetadataBackend = "sqlite"
	MetadataBackendPostgres MetadataBackend = "postgres"
)

// VectorBackend selects the VectorStore implementation independently of
// MetadataBackend.
type VectorBackend string

const (
	VectorBackendMemory    VectorBackend = "memory"
	VectorBackendPostgres  VectorBackend = "postgres"
	VectorBackendQdrant    VectorBackend = "qdrant"
	VectorBackendSQLiteVec VectorBackend = "sqlite_vec"
)

// CacheBackend selects where the embedder/query LRU caches live.
type CacheBackend string

const (
	CacheBackendLocal CacheBackend = "local"
	CacheBackendRedis CacheBackend = "redis"
)

// EmbedKind selects the primary embedding provider.
type EmbedKind string

const (
	EmbedKindSynthetic EmbedKind = "synthetic"
	EmbedKindOpenAI    EmbedKind = "openai"
	EmbedKindGemini    EmbedKind = "gemini"
	EmbedKindOllama    EmbedKind = "ollama"
	EmbedKindLocal     EmbedKind = "local"
	EmbedKindRouterCPU EmbedKind = "router_cpu"
)

// EmbedMode selects batch shape for query-time embedding.
type EmbedMode string

const (
	EmbedModeSimple   EmbedMode = "simple"
	EmbedModeAdvanced EmbedMode = "advanced"
)

// Postgres groups Postgres connection knobs.
type Postgres struct {
	Host             string
	Port             int
	DB               string
	User             string
	Password         string
	SSL              string
	Schema           string
	Table            string
	ConnectionString string
}

// DSN returns the connection string pgx should dial: the explicit
// pg_connection_string override when set, otherwise one assembled from the
// individual pg_* knobs.
func (p Postgres) DSN() string {
	if p.ConnectionString != "" {
		return p.ConnectionString
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSL)
}

// Config is OpenMemory's full set of environment-configured knobs.
type Config struct {
	MetadataBackend MetadataBackend
	DBPath          string
	PG              Postgres

	VectorBackend   VectorBackend
	QdrantURL       string
	QdrantCollection string

	CacheBackend CacheBackend
	RedisAddr    string

	EmbedKind          EmbedKind
	EmbeddingFallback  []EmbedKind
	VecDim             int
	EmbedMode          EmbedMode
	AdvEmbedParallel   bool
	RouterSectorModels map[string]string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	OllamaBaseURL string

	SegSize           int
	SummaryMaxLength  int
	MaxActive         int
	DecayIntervalMins int
	DecayRatio        float64
	DecaySleepMS      int
	KeywordBoost      float64
	HybridFusion      bool

	OrchestratorNamespace string
	OrchestratorMaxCtx    int

	OTelEnabled         bool
	Obs                 Observability
	LogLevel            string
	LogPath             string
	CircuitBreakerTrip  uint32
	CircuitBreakerReset int
}

// Observability groups the OTLP exporter knobs read when OTelEnabled is set.
type Observability struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
}

// Load reads configuration from the environment (optionally a local .env),
// applying the defaults named throughout the specification.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{
		MetadataBackend:   MetadataBackend(firstNonEmpty(os.Getenv("metadata_backend"), "sqlite")),
		DBPath:            firstNonEmpty(os.Getenv("db_path"), "openmemory.db"),
		VectorBackend:     VectorBackend(firstNonEmpty(os.Getenv("vector_backend"), "memory")),
		QdrantURL:         os.Getenv("qdrant_url"),
		QdrantCollection:  firstNonEmpty(os.Getenv("qdrant_collection"), "openmemory"),
		CacheBackend:      CacheBackend(firstNonEmpty(os.Getenv("cache_backend"), "local")),
		RedisAddr:         os.Getenv("redis_addr"),
		EmbedKind:         EmbedKind(firstNonEmpty(os.Getenv("embed_kind"), "synthetic")),
		EmbeddingFallback: parseEmbedKinds(os.Getenv("embedding_fallback")),
		VecDim:            intFromEnv("vec_dim", 384),
		EmbedMode:         EmbedMode(firstNonEmpty(os.Getenv("embed_mode"), "simple")),
		AdvEmbedParallel:  boolFromEnv("adv_embed_parallel", true),
		RouterSectorModels: parseMapping(os.Getenv("router_sector_models")),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     firstNonEmpty(os.Getenv("OPENAI_BASE_URL"), "https://api.openai.com/v1"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		OllamaBaseURL:     firstNonEmpty(os.Getenv("OLLAMA_BASE_URL"), "http://localhost:11434"),
		SegSize:           intFromEnv("seg_size", 10000),
		SummaryMaxLength:  intFromEnv("summary_max_length", 4000),
		MaxActive:         intFromEnv("max_active", 64),
		DecayIntervalMins: intFromEnv("decay_interval_minutes", 1440),
		DecayRatio:        floatFromEnv("decay_ratio", 1.0),
		DecaySleepMS:      intFromEnv("decay_sleep_ms", 0),
		KeywordBoost:      floatFromEnv("keyword_boost", 0.0),
		HybridFusion:      boolFromEnv("hybrid_fusion", true),
		OrchestratorNamespace: os.Getenv("lg_namespace"),
		OrchestratorMaxCtx:    intFromEnv("lg_max_context", 0),
		OTelEnabled: boolFromEnv("otel_enabled", false),
		Obs: Observability{
			ServiceName:    firstNonEmpty(os.Getenv("otel_service_name"), "openmemoryd"),
			ServiceVersion: firstNonEmpty(os.Getenv("otel_service_version"), "dev"),
			Environment:    firstNonEmpty(os.Getenv("otel_environment"), "development"),
			OTLPEndpoint:   os.Getenv("otel_otlp_endpoint"),
		},
		LogLevel:            firstNonEmpty(os.Getenv("log_level"), "info"),
		LogPath:             os.Getenv("log_path"),
		CircuitBreakerTrip:  uint32(intFromEnv("circuit_breaker_trip", 3)),
		CircuitBreakerReset: intFromEnv("circuit_breaker_reset_seconds", 300),
	}

	cfg.PG = Postgres{
		Host:             os.Getenv("pg_host"),
		Port:             intFromEnv("pg_port", 5432),
		DB:               os.Getenv("pg_db"),
		User:             os.Getenv("pg_user"),
		Password:         os.Getenv("pg_password"),
		SSL:              firstNonEmpty(os.Getenv("pg_ssl"), "disable"),
		Schema:           firstNonEmpty(os.Getenv("pg_schema"), "public"),
		Table:            firstNonEmpty(os.Getenv("pg_table"), "memories"),
		ConnectionString: os.Getenv("pg_connection_string"),
	}

	if cfg.VecDim <= 0 {
		return cfg, fmt.Errorf("config: vec_dim must be positive, got %d", cfg.VecDim)
	}
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatFromEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func boolFromEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func parseEmbedKinds(s string) []EmbedKind {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]EmbedKind, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, EmbedKind(p))
		}
	}
	return out
}

// parseMapping parses "sector=model,sector2=model2" into a map.
func parseMapping(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}
