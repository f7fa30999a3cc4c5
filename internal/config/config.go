package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Token            string        `env:"TOKEN,required,notEmpty"`
	AllowedUsers     []int64       `env:"ALLOWED_USERS"`
	DBPath           string        `env:"DB_PATH"           envDefault:"db.sqlite"`
	LLMAPIKey        string        `env:"LLM_API_KEY"`
	LLMBaseURL       string        `env:"LLM_BASE_URL"      envDefault:"https://api.groq.com/openai/v1/"`
	LLMModel         string        `env:"LLM_MODEL"         envDefault:"llama-3.3-70b-versatile"`
	SessionTTL       time.Duration `env:"SESSION_TTL"       envDefault:"12h"`
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" envDefault:"720h"`
	HistoryLimit     int           `env:"HISTORY_LIMIT"     envDefault:"10"`
}

// LoadConfig reads the optional dotenv files and then the process environment.
// Variables already present in the environment win over dotenv values.
func LoadConfig(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load dotenv file (path = %s): %w", file, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be positive (got %d)", cfg.HistoryLimit)
	}

	return cfg, nil
}
