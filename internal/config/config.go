package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	LLM           LLMConfig
	Generation    GenerationConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig points at the target SQLite file plus the optional
// annotation artifacts that enrich the prompt context.
type DatabaseConfig struct {
	Path           string
	MeaningsPath   string
	KnowledgePath  string
	SampleRows     int
	ResponseRowCap int
}

type LLMConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Model             string
	SQLTemperature    float64
	AnswerTemperature float64
	SQLMaxTokens      int
	AnswerMaxTokens   int
	Timeout           time.Duration
}

type GenerationConfig struct {
	MaxAttempts int
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASKDB_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASKDB_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "ASKDB_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_DATABASE_PATH", &cfg.Database.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_COLUMN_MEANINGS_PATH", &cfg.Database.MeaningsPath); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_KNOWLEDGE_PATH", &cfg.Database.KnowledgePath); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_SCHEMA_SAMPLE_ROWS", &cfg.Database.SampleRows); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_RESPONSE_ROW_CAP", &cfg.Database.ResponseRowCap); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_LLM_PROVIDER", &cfg.LLM.Provider); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_LLM_BASE_URL", &cfg.LLM.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_LLM_API_KEY", &cfg.LLM.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_LLM_MODEL", &cfg.LLM.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "ASKDB_LLM_SQL_TEMPERATURE", &cfg.LLM.SQLTemperature); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "ASKDB_LLM_ANSWER_TEMPERATURE", &cfg.LLM.AnswerTemperature); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_LLM_SQL_MAX_TOKENS", &cfg.LLM.SQLMaxTokens); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_LLM_ANSWER_MAX_TOKENS", &cfg.LLM.AnswerMaxTokens); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_LLM_TIMEOUT", &cfg.LLM.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_GENERATION_MAX_ATTEMPTS", &cfg.Generation.MaxAttempts); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "ASKDB_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Database.Path == "" {
		return Config{}, fmt.Errorf("database path is required")
	}
	if !isValidProvider(cfg.LLM.Provider) {
		return Config{}, fmt.Errorf("invalid ASKDB_LLM_PROVIDER: %q", cfg.LLM.Provider)
	}
	if cfg.Generation.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("generation max attempts must be at least 1")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "askdb-api"},
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Path:           "database/credit.sqlite",
			MeaningsPath:   "database/credit_column_meaning_base.json",
			KnowledgePath:  "database/credit_kb.jsonl",
			SampleRows:     2,
			ResponseRowCap: 50,
		},
		LLM: LLMConfig{
			Provider:          "anthropic",
			BaseURL:           "https://api.anthropic.com",
			Model:             "claude-sonnet-4-20250514",
			SQLTemperature:    0,
			AnswerTemperature: 0.7,
			SQLMaxTokens:      1024,
			AnswerMaxTokens:   512,
			Timeout:           30 * time.Second,
		},
		Generation: GenerationConfig{
			MaxAttempts: 3,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18000"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidProvider(provider string) bool {
	switch provider {
	case "anthropic", "openai":
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
