package generatechartspec

import "time"

type Config struct {
	Timeout    time.Duration
	SampleSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		SampleSize: 5,
	}
}
