// internal/workers/matrix/update-adjustment-matrix/config.go
package updateadjustmentmatrix

import "time"

type Config struct {
	Timeout   time.Duration
	MatrixKey string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   15 * time.Second,
		MatrixKey: "llpa:adjustment-matrix",
	}
}
