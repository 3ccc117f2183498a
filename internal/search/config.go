// internal/search/config.go
package search

import "time"

type Config struct {
	BaseURL    string
	APIKey     string
	EngineID   string
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		MaxResults: 3,
	}
}
