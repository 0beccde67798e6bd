package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("ASSET_BACKEND", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")
	t.Setenv("AUTH_ADMIN_EMAILS", "")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, AssetBackendPinata, cfg.Assets.Backend)
	assert.Equal(t, int64(2*1024*1024), cfg.Assets.MaxUploadBytes)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/", cfg.Assets.GatewayURL)
	assert.Equal(t, "0.0.0.0:3000", cfg.App.Addr())
	assert.Empty(t, cfg.Auth.AdminEmails)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("ASSET_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "signatures")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("AUTH_RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("AUTH_ADMIN_EMAILS", " Owner@Example.com, ,ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, AssetBackendS3, cfg.Assets.Backend)
	assert.Equal(t, int64(1024), cfg.Assets.MaxUploadBytes)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, []string{"owner@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("unknown asset backend", func(t *testing.T) {
		t.Setenv("ASSET_BACKEND", "ftp")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("ASSET_BACKEND", "s3")
		t.Setenv("S3_BUCKET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("default secret in production", func(t *testing.T) {
		t.Setenv("ASSET_BACKEND", "")
		t.Setenv("APP_ENV", "production")
		t.Setenv("AUTH_JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("invalid redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "x")
		_, err := Load()
		require.Error(t, err)
	})
}
