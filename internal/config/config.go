package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	HTTP      HTTPConfig      `yaml:"http"`
	Reporting ReportingConfig `yaml:"reporting"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type ReportingConfig struct {
	// Default lookback windows in days when the request omits ?period=.
	DashboardPeriodDays int `yaml:"dashboard_period_days"`
	InsightsPeriodDays  int `yaml:"insights_period_days"`
}

// Load reads and validates the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.Reporting.DashboardPeriodDays == 0 {
		c.Reporting.DashboardPeriodDays = 30
	}
	if c.Reporting.InsightsPeriodDays == 0 {
		c.Reporting.InsightsPeriodDays = 90
	}
}

func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("config: rabbitmq.host is required")
	}
	return nil
}
