package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerPort    string `env:"SERVER_PORT" envDefault:"8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"pixelstory"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"pixelstory_dev_password"`
	DBName     string `env:"DB_NAME" envDefault:"pixelstory"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	StorageDir string `env:"STORAGE_DIR" envDefault:"./data"`
	PublicBase string `env:"PUBLIC_BASE" envDefault:"/static"`

	PixelLabAPIKey  string `env:"PIXELLAB_API_KEY"`
	PixelLabBaseURL string `env:"PIXELLAB_BASE_URL" envDefault:"https://api.pixellab.ai/v1"`
	StoryAPIToken   string `env:"STORY_API_TOKEN"`
	StoryBaseURL    string `env:"STORY_BASE_URL" envDefault:"https://router.huggingface.co/v1"`
	StoryModel      string `env:"STORY_MODEL" envDefault:"meta-llama/Meta-Llama-3-8B-Instruct"`

	// GenerationTimeout bounds one full generation run; records still
	// "generating" past twice this bound are swept to failed.
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"5m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
