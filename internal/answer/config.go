// internal/answer/config.go
package answer

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Model:   "deepseek-ai/DeepSeek-R1",
		Timeout: 60 * time.Second,
	}
}
