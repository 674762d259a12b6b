package answerbillingquestion

import "time"

type Config struct {
	Timeout         time.Duration
	PaymentStatuses []string
	RecentRecords   int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		RecentRecords: 10,
	}
}
