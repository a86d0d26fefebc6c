// internal/workers/export/export-pricing-results/config.go
package exportpricingresults

import "time"

type Config struct {
	Timeout            time.Duration
	BreakEvenThreshold float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            30 * time.Second,
		BreakEvenThreshold: 18,
	}
}
