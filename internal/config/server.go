package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	RateLimitPerSec float64 `env:"RATE_LIMIT_PER_SEC" envDefault:"20"`
	RateLimitBurst  int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
