// internal/workers/results/index-pricing-results/config.go
package indexpricingresults

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Index:   "pricing-results",
	}
}
