package config

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetSingleton() {
	instance = nil
	once = sync.Once{}
}

func viperFromYAML(t *testing.T, y string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(y)))
	return v
}

func TestGetUninitialized(t *testing.T) {
	resetSingleton()
	assert.Panics(t, func() { Get() })
}

func TestLoadAndGet(t *testing.T) {
	resetSingleton()

	v := viperFromYAML(t, `
portal:
  base_url: "https://zeit.example.com"
  language: "de"
transport:
  mode: "server"
  port: 8753
  impersonate: "chrome_124"
  request_timeout: 30s
session:
  fetch_concurrency: 4
`)
	require.NoError(t, Load(v))

	cfg := Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "https://zeit.example.com", cfg.Portal.BaseURL)
	assert.Equal(t, "de", cfg.Portal.Language)
	assert.Equal(t, "server", cfg.Transport.Mode)
	assert.Equal(t, 8753, cfg.Transport.Port)
	assert.Equal(t, 30*time.Second, cfg.Transport.RequestTimeout)
	assert.Equal(t, 4, cfg.Session.FetchConcurrency)

	// Subsequent loads must not replace the instance.
	v2 := viperFromYAML(t, `portal: {base_url: "https://other.example.com"}`)
	require.NoError(t, Load(v2))
	assert.Equal(t, "https://zeit.example.com", Get().Portal.BaseURL)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing base url", func(c *Config) { c.Portal.BaseURL = "" }, "base_url is required"},
		{"relative base url", func(c *Config) { c.Portal.BaseURL = "zeit.example.com" }, "absolute http(s)"},
		{"bad mode", func(c *Config) { c.Transport.Mode = "carrier-pigeon" }, "transport.mode"},
		{"bad port", func(c *Config) { c.Transport.Port = 70000 }, "out of range"},
		{"negative concurrency", func(c *Config) { c.Session.FetchConcurrency = -1 }, "fetch_concurrency"},
		{"empty mode ok", func(c *Config) { c.Transport.Mode = "" }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Portal:    PortalConfig{BaseURL: "https://zeit.example.com"},
				Transport: TransportConfig{Mode: "auto", Port: 8753},
			}
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	resetSingleton()

	v := viperFromYAML(t, `portal: {base_url: "not-a-url"}`)
	err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Panics(t, func() { Get() })
}
