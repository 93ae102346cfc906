package llm

import "time"

const defaultPath = "/v1/chat/completions"

type Config struct {
	BaseURL     string
	Path        string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com",
		Path:        defaultPath,
		Model:       "gpt-4o-mini",
		Timeout:     15 * time.Second,
		MaxRetries:  1,
		MaxTokens:   200,
		Temperature: 0.3,
	}
}
