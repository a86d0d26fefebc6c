// internal/workers/ingestion/parse-borrower-file/config.go
package parseborrowerfile

import "time"

type Config struct {
	Timeout time.Duration
	MaxRows int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		MaxRows: 50000,
	}
}
