// internal/workers/notification/notify-batch-complete/config.go
package notifybatchcomplete

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
		FromEmail:    "pricing@refi-workers.io",
	}
}
