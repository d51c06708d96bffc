package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracker  TrackerConfig  `yaml:"tracker"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                      string `yaml:"host"`
	Port                      int    `yaml:"port"`
	PackageUpdatedTopicName   string `yaml:"package_updated_topic_name"`
	PositionReportedTopicName string `yaml:"position_reported_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TrackerConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	GeocodeBaseURL            string `yaml:"geocode_base_url"`
	GeocodeTimeoutSeconds     int    `yaml:"geocode_timeout_seconds"`
	GeocodeCacheTTLSeconds    int    `yaml:"geocode_cache_ttl_seconds"`
	GeocodeRateLimitPerMinute int    `yaml:"geocode_rate_limit_per_minute"`

	DeliveredRadiusKm float64 `yaml:"delivered_radius_km"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
