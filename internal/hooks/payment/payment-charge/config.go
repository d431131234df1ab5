package paymentcharge

import "fmt"

type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Currency string `mapstructure:"currency"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:  true,
		Currency: "gbp",
	}
}

func (c *Config) Validate() error {
	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a three-letter ISO code, got %q", c.Currency)
	}
	return nil
}
