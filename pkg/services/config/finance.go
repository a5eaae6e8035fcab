package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the optional service configuration. Every field has a usable
// default; environment variables (COPANY_FINANCE_*) override file values.
type Config struct {
	Addr             string              `mapstructure:"addr"`
	ReportingBaseURL string              `mapstructure:"reporting_base_url"`
	DatabaseURL      string              `mapstructure:"database_url"`
	ReportMatrix     map[string][]string `mapstructure:"report_matrix"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("reporting_base_url", "")
	v.SetDefault("database_url", "")
	v.SetEnvPrefix("COPANY_FINANCE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
