// internal/workers/pricing/price-borrower-batch/config.go
package priceborrowerbatch

import "time"

type Config struct {
	Timeout      time.Duration
	BatchWorkers int
	MatrixKey    string
	ResultsTTL   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		BatchWorkers: 8,
		MatrixKey:    "llpa:adjustment-matrix",
		ResultsTTL:   time.Hour,
	}
}
