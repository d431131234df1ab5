// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig             `mapstructure:"app"`
	Server        ServerConfig          `mapstructure:"server"`
	Camunda       CamundaConfig         `mapstructure:"camunda"`
	Redis         RedisConfig           `mapstructure:"redis"`
	Stripe        StripeConfig          `mapstructure:"stripe"`
	Hooks         map[string]HookConfig `mapstructure:"hooks"`
	Logging       LoggingConfig         `mapstructure:"logging"`
	Observability ObservabilityConfig   `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the HTTP host adapter.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// CamundaConfig configures the optional Zeebe host adapter.
type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// RedisConfig configures the optional duplicate-charge guard.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	GuardTTL int    `mapstructure:"guard_ttl"` // milliseconds
}

// StripeConfig holds the payment provider settings. SecretKey must come from
// the environment or a secret store, never from a committed file.
type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Currency  string `mapstructure:"currency"`
	APIURL    string `mapstructure:"api_url"`
}

// HookConfig holds the settings applicable to every hook.
type HookConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds, Zeebe job lease only
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}
