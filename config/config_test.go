package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func()
		cleanupEnv  func()
		expected    *Config
		wantErr     bool
		errContains string
	}{
		{
			name: "default configuration when no env vars set",
			setupEnv: func() {
				os.Unsetenv("FIGURES_API_URL")
				os.Unsetenv("FIGURES_APP_NAME")
				os.Unsetenv("PORT")
				os.Unsetenv("CACHE_TTL")
				os.Unsetenv("UPSTREAM_TIMEOUT")
			},
			cleanupEnv: func() {},
			expected: &Config{
				AppName:         "figures-hub",
				Port:            "8890",
				CacheTTL:        time.Hour,
				CacheNamespace:  "keyfigures",
				UpstreamTimeout: 10 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "custom configuration from environment variables",
			setupEnv: func() {
				os.Setenv("FIGURES_API_URL", "https://figures.example.test/api/v1")
				os.Setenv("FIGURES_API_KEY", "secret")
				os.Setenv("PORT", "9999")
				os.Setenv("CACHE_TTL", "30m")
				os.Setenv("CACHE_NAMESPACE", "figures")
			},
			cleanupEnv: func() {
				os.Unsetenv("FIGURES_API_URL")
				os.Unsetenv("FIGURES_API_KEY")
				os.Unsetenv("PORT")
				os.Unsetenv("CACHE_TTL")
				os.Unsetenv("CACHE_NAMESPACE")
			},
			expected: &Config{
				APIURL:          "https://figures.example.test/api/v1",
				APIKey:          "secret",
				AppName:         "figures-hub",
				Port:            "9999",
				CacheTTL:        30 * time.Minute,
				CacheNamespace:  "figures",
				UpstreamTimeout: 10 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "invalid cache TTL format returns error",
			setupEnv: func() {
				os.Setenv("CACHE_TTL", "invalid")
			},
			cleanupEnv: func() {
				os.Unsetenv("CACHE_TTL")
			},
			wantErr:     true,
			errContains: "invalid CACHE_TTL format",
		},
		{
			name: "invalid upstream timeout format returns error",
			setupEnv: func() {
				os.Setenv("UPSTREAM_TIMEOUT", "ten seconds")
			},
			cleanupEnv: func() {
				os.Unsetenv("UPSTREAM_TIMEOUT")
			},
			wantErr:     true,
			errContains: "invalid UPSTREAM_TIMEOUT format",
		},
		{
			name: "negative cache TTL fails validation",
			setupEnv: func() {
				os.Setenv("CACHE_TTL", "-1h")
			},
			cleanupEnv: func() {
				os.Unsetenv("CACHE_TTL")
			},
			wantErr:     true,
			errContains: "CACHE_TTL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			defer tt.cleanupEnv()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("empty port fails", func(t *testing.T) {
		cfg := &Config{CacheTTL: time.Hour, CacheNamespace: "keyfigures", UpstreamTimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty namespace fails", func(t *testing.T) {
		cfg := &Config{Port: "8890", CacheTTL: time.Hour, UpstreamTimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})

	t.Run("complete config passes", func(t *testing.T) {
		cfg := &Config{Port: "8890", CacheTTL: time.Hour, CacheNamespace: "keyfigures", UpstreamTimeout: time.Second}
		assert.NoError(t, cfg.Validate())
	})
}

func TestGetEnvFileIndirection(t *testing.T) {
	t.Run("reads value from file when _FILE is set", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "apikey")
		assert.NoError(t, err)
		_, err = f.WriteString("file-secret\n")
		assert.NoError(t, err)
		f.Close()

		os.Setenv("FIGURES_API_KEY_FILE", f.Name())
		defer os.Unsetenv("FIGURES_API_KEY_FILE")

		assert.Equal(t, "file-secret", getEnv("FIGURES_API_KEY", ""))
	})
}
