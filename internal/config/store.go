package config

import "time"

// StoreConfig holds document store connection configuration
type StoreConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`

	// Connection pool settings
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	MaxPoolSize     uint64        `yaml:"max_pool_size"`
	MinPoolSize     uint64        `yaml:"min_pool_size"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`

	// Connect retry settings
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// WithDefaults fills in pool and retry settings left unset in the file.
func (c *StoreConfig) WithDefaults() StoreConfig {
	out := *c
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = 10 * time.Second
	}
	if out.MaxPoolSize == 0 {
		out.MaxPoolSize = 100
	}
	if out.RetryAttempts == 0 {
		out.RetryAttempts = 3
	}
	if out.RetryInterval == 0 {
		out.RetryInterval = 5 * time.Second
	}
	return out
}
