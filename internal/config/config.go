package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yourname/macrotracker/internal"
)

type Config struct {
	Env      string `validate:"oneof=development staging production"`
	LogLevel string
	Port     string `validate:"required,numeric"`

	StorageBackend string `validate:"oneof=file postgres redis sqlite"`
	PostgresDSN    string
	SessionsFile   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	SQLitePath     string

	SessionSecret string
	SessionTTL    time.Duration `validate:"gt=0"`
	PurgeInterval time.Duration `validate:"gt=0"`

	LLMProvider string `validate:"oneof=openai gemini"`
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  time.Duration `validate:"gt=0"`

	// TokenLimit is the per-session ceiling on model tokens. Zero disables it.
	TokenLimit        int `validate:"gte=0"`
	StrictReplyLabels bool
	GoalsFile         string
	Goals             internal.NutrientGoals
}

var (
	cfg  *Config
	once sync.Once

	validate = validator.New()
)

// Load reads the configuration once per process and panics when it is invalid.
func Load() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
		}
		c, err := FromEnv()
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

// FromEnv builds a Config from the current environment without caching it.
func FromEnv() (*Config, error) {
	c := &Config{
		Env:               getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnv("PORT", "8080"),
		StorageBackend:    getEnv("STORAGE_BACKEND", "file"),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		SessionsFile:      getEnv("SESSIONS_FILE", "data/sessions.json"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		SQLitePath:        getEnv("SQLITE_PATH", "data/macrotracker.db"),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		PurgeInterval:     getEnvDuration("SESSION_PURGE_INTERVAL", 10*time.Minute),
		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:         getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		TokenLimit:        getEnvInt("TOKEN_LIMIT", 1000),
		StrictReplyLabels: getEnvBool("PARSER_STRICT_LABELS", false),
		GoalsFile:         getEnv("GOALS_FILE", ""),
		Goals:             DefaultGoals(),
	}

	if c.GoalsFile != "" {
		goals, err := LoadGoalsFile(c.GoalsFile)
		if err != nil {
			return nil, err
		}
		c.Goals = goals
	}
	c.Goals.Calories = getEnvFloat("GOAL_CALORIES", c.Goals.Calories)
	c.Goals.Protein = getEnvFloat("GOAL_PROTEIN", c.Goals.Protein)
	c.Goals.Carbs = getEnvFloat("GOAL_CARBS", c.Goals.Carbs)
	c.Goals.Fat = getEnvFloat("GOAL_FAT", c.Goals.Fat)
	c.Goals.Fiber = getEnvFloat("GOAL_FIBER", c.Goals.Fiber)

	if c.SessionSecret == "" && c.Env == "development" {
		c.SessionSecret = "dev-session-secret"
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func DefaultGoals() internal.NutrientGoals {
	return internal.NutrientGoals{
		Calories: 2000,
		Protein:  150,
		Carbs:    250,
		Fat:      70,
		Fiber:    30,
	}
}

// LoadGoalsFile reads goals from YAML. Nutrients missing from the file keep
// their default value.
func LoadGoalsFile(path string) (internal.NutrientGoals, error) {
	goals := DefaultGoals()
	data, err := os.ReadFile(path)
	if err != nil {
		return goals, fmt.Errorf("config: read goals file: %w", err)
	}
	if err := yaml.Unmarshal(data, &goals); err != nil {
		return goals, fmt.Errorf("config: parse goals file: %w", err)
	}
	return goals, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.StorageBackend == "postgres" && c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.StorageBackend == "file" && c.SessionsFile == "" {
		return errors.New("File storage requires SESSIONS_FILE to be set")
	}
	if c.StorageBackend == "redis" && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required when STORAGE_BACKEND=redis")
	}
	if c.StorageBackend == "sqlite" && c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
