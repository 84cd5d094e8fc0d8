package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	Provider ProviderConfig
	Pipeline PipelineConfig
	Store    StoreConfig
	Archive  ArchiveConfig
	Schedule ScheduleConfig
}

// ProviderConfig selects and tunes the LLM backend.
type ProviderConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	RPS       int
	Burst     int
	CacheSize int
}

// PipelineConfig carries the analysis tuning knobs. All defaults are safe
// for interactive use; batch jobs usually raise the concurrency limit.
type PipelineConfig struct {
	BatchSize         int
	MaxTokensPerChunk int
	ChunkOverlap      int
	MapReduceTokens   int
	TopNClusters      int
	RetryMax          int
	Concurrency       int
	Timeout           time.Duration
}

type StoreConfig struct {
	DatabaseURL string
	ReportDir   string
	CacheSize   int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type ScheduleConfig struct {
	Spec   string
	Topics []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	port := firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), ":8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &Config{
		Port:     port,
		Env:      env,
		Provider: loadProviderConfig(),
		Pipeline: loadPipelineConfig(),
		Store:    loadStoreConfig(),
		Archive:  loadArchiveConfig(env),
		Schedule: loadScheduleConfig(),
	}, nil
}

func loadProviderConfig() ProviderConfig {
	provider := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "fake"))
	return ProviderConfig{
		Provider:  provider,
		APIKey:    providerAPIKey(provider),
		BaseURL:   strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		Model:     strings.TrimSpace(os.Getenv("LLM_MODEL")),
		RPS:       envInt("LLM_RPS", 0),
		Burst:     envInt("LLM_BURST", 1),
		CacheSize: envInt("LLM_CACHE_SIZE", 256),
	}
}

func providerAPIKey(provider string) string {
	switch provider {
	case "gemini":
		return firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func loadPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize:         envInt("ANALYSIS_BATCH_SIZE", 10),
		MaxTokensPerChunk: envInt("ANALYSIS_MAX_TOKENS_PER_CHUNK", 2000),
		ChunkOverlap:      envInt("ANALYSIS_CHUNK_OVERLAP", 200),
		MapReduceTokens:   envInt("ANALYSIS_MAP_REDUCE_THRESHOLD_TOKENS", 3500),
		TopNClusters:      envInt("ANALYSIS_TOP_N_CLUSTERS", 3),
		RetryMax:          envInt("ANALYSIS_RETRY_MAX", 3),
		Concurrency:       envInt("ANALYSIS_CONCURRENCY_LIMIT", 5),
		Timeout:           time.Duration(envInt("ANALYSIS_TIMEOUT_SECONDS", 300)) * time.Second,
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportDir:   firstNonEmpty(strings.TrimSpace(os.Getenv("REPORT_DIR")), "data/reports"),
		CacheSize:   envInt("REPORT_CACHE_SIZE", 64),
	}
}

func loadArchiveConfig(env string) ArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "opinionpulse-reports"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARCHIVE_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func loadScheduleConfig() ScheduleConfig {
	var topics []string
	for _, t := range strings.Split(os.Getenv("SCHEDULE_TOPICS"), ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}
	return ScheduleConfig{
		Spec:   strings.TrimSpace(os.Getenv("SCHEDULE_CRON")),
		Topics: topics,
	}
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
