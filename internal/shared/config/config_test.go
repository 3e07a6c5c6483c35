package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_BetslipServiceDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "betslip-service")

	cfg := Load()

	assert.Equal(t, "8084", cfg.HTTPPort)
	assert.Equal(t, "9100", cfg.MetricsPort)
	assert.Equal(t, "redis", cfg.BetslipStorage)
	assert.Equal(t, "betslip_placed", cfg.TopicBetslipPlaced)
	assert.Equal(t, 3*time.Second, cfg.FeedReconnectDelay)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "feed-simulator")
	t.Setenv("HTTP_PORT_FEED", "9999")
	t.Setenv("BETSLIP_STORAGE", "sqlite")
	t.Setenv("FEED_RECONNECT_DELAY", "250ms")

	cfg := Load()

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "9094", cfg.MetricsPort)
	assert.Equal(t, "sqlite", cfg.BetslipStorage)
	assert.Equal(t, 250*time.Millisecond, cfg.FeedReconnectDelay)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("FEED_RECONNECT_DELAY", "soon")

	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.FeedReconnectDelay)
}

func TestLoad_PlacementWorker(t *testing.T) {
	t.Setenv("SERVICE_NAME", "placement-worker")

	cfg := Load()

	assert.Equal(t, "9101", cfg.MetricsPort)
	assert.Empty(t, cfg.HTTPPort)
	assert.Equal(t, "betslip-history", cfg.KafkaGroupID)
}
