package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, Load())

	assert.Equal(t, ":8080", APIAddr())
	assert.True(t, DBEnabled())
	assert.Equal(t, 30*time.Minute, AccessTTL())
	assert.Equal(t, 24*time.Hour, RefreshTTL())
	assert.Equal(t, "hydro/systems/+/measurements", MQTTTopic())
	assert.False(t, UseCloudServices())
	assert.Empty(t, SimulatorSensorIDs())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("USE_CLOUD_SERVICES", "true")
	t.Setenv("SIMULATOR_SENSOR_IDS", "3, 4,x,,-1,7")
	require.NoError(t, Load())

	assert.Equal(t, ":9090", APIAddr())
	assert.False(t, DBEnabled())
	assert.Equal(t, 5*time.Minute, AccessTTL())
	assert.True(t, UseCloudServices())
	assert.Equal(t, []int64{3, 4, 7}, SimulatorSensorIDs())
}
