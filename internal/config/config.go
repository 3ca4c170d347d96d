package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the grading engine. The engine
// itself never reads ambient environment state; everything it needs is
// loaded here once and passed into constructors explicitly.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	JudgmentModels     []string
	JudgmentTimeout    time.Duration
	JudgmentMaxRetries int
	JudgmentCacheTTL   time.Duration
	RedisURL           string

	DockerHost       string
	ExecutionTimeout time.Duration
	SandboxMemoryMB  int
	SandboxCPUShares int
	WorkspaceRoot    string

	Concurrency int

	DatabaseURL string
	SQLitePath  string

	NATSURL     string
	NATSSubject string

	TrackerBaseURL       string
	TrackerAPIKey        string
	TrackerGradesDB      string
	TrackerStudentsDB    string
	TrackerGradeTopicID  string
	TrackerNotesTemplate string

	JWTSecret string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Codegrader")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judgment.timeout", "30s")
	v.SetDefault("judgment.max_retries", 1)
	v.SetDefault("judgment.cache_ttl", "24h")
	v.SetDefault("execution_timeout_ms", 10000)
	v.SetDefault("sandbox_memory_mb", 256)
	v.SetDefault("sandbox_cpu_shares", 512)
	v.SetDefault("concurrency", 4)
	v.SetDefault("nats.subject", "grades.reports")

	judgmentTimeout, err := time.ParseDuration(v.GetString("judgment.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid judgment timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("judgment.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid judgment cache ttl: %w", err)
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		OpenAIAPIKey:         v.GetString("openai_api_key"),
		OpenAIBaseURL:        v.GetString("openai_base_url"),
		JudgmentModels:       splitList(v.GetString("judgment.models")),
		JudgmentTimeout:      judgmentTimeout,
		JudgmentMaxRetries:   v.GetInt("judgment.max_retries"),
		JudgmentCacheTTL:     cacheTTL,
		RedisURL:             v.GetString("redis.url"),
		DockerHost:           v.GetString("docker_host"),
		ExecutionTimeout:     time.Duration(timeoutMs) * time.Millisecond,
		SandboxMemoryMB:      v.GetInt("sandbox_memory_mb"),
		SandboxCPUShares:     v.GetInt("sandbox_cpu_shares"),
		WorkspaceRoot:        v.GetString("workspace_root"),
		Concurrency:          v.GetInt("concurrency"),
		DatabaseURL:          v.GetString("database.url"),
		SQLitePath:           v.GetString("sqlite.path"),
		NATSURL:              v.GetString("nats.url"),
		NATSSubject:          v.GetString("nats.subject"),
		TrackerBaseURL:       v.GetString("tracker.base_url"),
		TrackerAPIKey:        v.GetString("tracker.api_key"),
		TrackerGradesDB:      v.GetString("tracker.grades_database_id"),
		TrackerStudentsDB:    v.GetString("tracker.students_database_id"),
		TrackerGradeTopicID:  v.GetString("tracker.grade_topic_id"),
		TrackerNotesTemplate: v.GetString("tracker.notes_template"),
		JWTSecret:            v.GetString("jwt.secret"),
	}

	if cfg.SandboxMemoryMB <= 0 {
		cfg.SandboxMemoryMB = 256
	}
	if cfg.SandboxCPUShares <= 0 {
		cfg.SandboxCPUShares = 512
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.JudgmentMaxRetries < 0 {
		cfg.JudgmentMaxRetries = 0
	}

	return cfg, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
