package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  package_updated_topic_name: "package.updated"
  position_reported_topic_name: "position.reported"
redis:
  host: "localhost"
  port: 6379
tracker:
  http_addr: ":8080"
  kafka_consumer_group: "tracker-api"
  geocode_base_url: "https://nominatim.openstreetmap.org"
  geocode_timeout_seconds: 6
  geocode_cache_ttl_seconds: 86400
  geocode_rate_limit_per_minute: 60
  delivered_radius_km: 5
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "package.updated", cfg.Kafka.PackageUpdatedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.Tracker.HTTPAddr)
	require.Equal(t, 60, cfg.Tracker.GeocodeRateLimitPerMinute)
	require.Equal(t, 5.0, cfg.Tracker.DeliveredRadiusKm)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
