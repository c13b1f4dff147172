package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	WorkerPrincipalID string `env:"WORKER_PRINCIPAL_ID,required"`
	JWTSecret         string `env:"JWT_SECRET,required"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4.1-nano"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-pro"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	BarrierTimeoutSeconds int `env:"BARRIER_TIMEOUT_SECONDS" envDefault:"5"`
	BackendTimeoutSeconds int `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"60"`

	RespondRateWindowSeconds int `env:"RESPOND_RATE_WINDOW_SECONDS" envDefault:"60"`
	RespondRateMax           int `env:"RESPOND_RATE_MAX" envDefault:"20"`

	BootstrapMarkerTTLSeconds int `env:"BOOTSTRAP_MARKER_TTL_SECONDS" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
