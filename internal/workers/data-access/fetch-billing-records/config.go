package fetchbillingrecords

import "time"

type Config struct {
	Timeout         time.Duration
	PaymentStatuses []string
	RecentRecords   int
	// Source labels the backend in job output and logs.
	Source string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		RecentRecords: 10,
		Source:        "postgres",
	}
}
