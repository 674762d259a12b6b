package sharechartreport

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout      time.Duration
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		FromEmail:    "reports@example.com",
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when email is enabled")
	}
	return nil
}
