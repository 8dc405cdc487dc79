package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TYPING_TTL", "")
	t.Setenv("NOTIFICATION_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 5, cfg.MaxFilesPerBatch)
	assert.Equal(t, 2*time.Second, cfg.TypingTTL)
	assert.Equal(t, 5*time.Second, cfg.NotificationTTL)
	assert.Equal(t, 10, cfg.NotificationCap)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TYPING_TTL", "750ms")
	t.Setenv("MAX_FILES_PER_BATCH", "3")
	t.Setenv("STORE_BACKEND", StoreBackendFirestore)
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.TypingTTL)
	assert.Equal(t, 3, cfg.MaxFilesPerBatch)
	assert.Equal(t, StoreBackendFirestore, cfg.StoreBackend)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
}

func TestUsesFirebase(t *testing.T) {
	cfg := &Config{FirebaseProject: "p"}
	assert.False(t, cfg.UsesFirebase())

	cfg.ServiceAccountPath = "./sa.json"
	assert.True(t, cfg.UsesFirebase())
}

func TestAllowedOriginsAndBaseURL(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("PUBLIC_BASE_URL", "https://chat.example")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://chat.example", cfg.PublicBaseURL)
}
