package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadBlobConfig_Defaults(t *testing.T) {
	t.Setenv("UPLOAD_BASE_URL", "http://cdn.local/")
	t.Setenv("BLOB_BACKEND", "S3")

	cfg := LoadBlobConfig()
	assert.Equal(t, "s3", cfg.Backend)
	assert.Equal(t, "http://cdn.local", cfg.PublicBaseURL)
	assert.Equal(t, int64(5242880), cfg.MaxBytes)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "YES")
	assert.True(t, envBool("X_FLAG", false))
	t.Setenv("X_FLAG", "nope")
	assert.True(t, envBool("X_FLAG", true))
}
