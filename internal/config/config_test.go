package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TgFlow/internal/config"
)

func load(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	conf := &config.Config{}
	require.NoError(t, cleanenv.ReadConfig(path, conf))
	return conf
}

func TestDefaults(t *testing.T) {
	conf := load(t, "env: local\n")

	assert.Equal(t, config.StoreMemory, conf.Store.Driver)
	assert.Equal(t, 10*time.Minute, conf.Store.CacheCleanup)
	assert.Equal(t, "127.0.0.1:6379", conf.Redis.Addr)
	assert.Equal(t, "en", conf.I18n.DefaultLanguage)
	assert.NoError(t, conf.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"redis store", "store:\n  driver: redis\n", true},
		{"unknown store", "store:\n  driver: etcd\n", false},
		{"unknown env", "env: staging\n", false},
		{"telegram without key", "telegram:\n  enabled: true\n", false},
		{"telegram with key", "telegram:\n  enabled: true\n  api_key: abc\n", true},
		{"bad currency", "payments:\n  currency: EURO\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := load(t, tt.body).Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
