package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort           string `env:"HTTP_PORT" envDefault:"3000"`
	DatabasePath       string `env:"DATABASE_PATH" envDefault:":memory:"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	LoginMaxAttempts   int    `env:"LOGIN_MAX_ATTEMPTS" envDefault:"10"`
	LoginWindowMinutes int    `env:"LOGIN_WINDOW_MINUTES" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
