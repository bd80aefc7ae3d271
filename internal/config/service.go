package config

import "fmt"

type ServiceConfig struct {
	Name            string `yaml:"name"`
	Environment     string `yaml:"environment"`
	Version         string `yaml:"version"`
	StripeSecretKey string `yaml:"stripe_secret_key"`
	JWTSecret       string `yaml:"jwt_secret"`

	// DefaultCurrency is applied to charges whose request document does
	// not name a currency of its own.
	DefaultCurrency string `yaml:"default_currency"`

	// TransferPercent is the share of each charge routed to the
	// destination account, the remainder retained as platform fee.
	TransferPercent int64 `yaml:"transfer_percent"`
}

func (c *ServiceConfig) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("service.stripe_secret_key is required")
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "USD"
	}
	if c.TransferPercent == 0 {
		c.TransferPercent = 90
	}
	if c.TransferPercent < 0 || c.TransferPercent > 100 {
		return fmt.Errorf("service.transfer_percent must be between 0 and 100, got %d", c.TransferPercent)
	}
	return nil
}
