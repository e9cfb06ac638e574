package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Payments PaymentsConfig `yaml:"payments"`
	Reviews  ReviewsConfig  `yaml:"reviews"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	WalkEventsTopic    string   `yaml:"walk_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

type PaymentsConfig struct {
	ProcessorURL     string  `yaml:"processor_url"`
	ProcessorKey     string  `yaml:"processor_key"`
	WebhookSecret    string  `yaml:"webhook_secret"`
	PlatformFeePct   float64 `yaml:"platform_fee_percent"`
	OnboardReturnURL string  `yaml:"onboard_return_url"`
}

// FeePercent returns the configured platform fee, defaulting to 15%.
func (p PaymentsConfig) FeePercent() float64 {
	if p.PlatformFeePct <= 0 {
		return 15
	}
	return p.PlatformFeePct
}

type ReviewsConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
