package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Aggregator.CacheTTLSeconds)
	assert.Equal(t, 15, cfg.RemoteTimeoutSeconds)
	assert.Equal(t, []string{ProviderGoogleCal, ProviderOutlook, ProviderNotion}, cfg.Aggregator.CreatePreference)
	assert.Equal(t, filepath.Join(dir, "credentials.json"), cfg.CredentialFile)
	assert.Contains(t, cfg.Providers, ProviderGmail)
	assert.Contains(t, cfg.Providers, ProviderNotion)
	assert.True(t, cfg.Providers[ProviderNotion].OAuth.Static)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	content := `
aggregator:
  cacheTTLSeconds: 30
  createPreference: [outlook]
remoteTimeoutSeconds: 5
logLevel: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Aggregator.CacheTTLSeconds)
	assert.Equal(t, []string{"outlook"}, cfg.Aggregator.CreatePreference)
	assert.Equal(t, 5, cfg.RemoteTimeoutSeconds)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("providers: ["), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestExpandSecretsFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := `
providers:
  gmail:
    enabled: true
    oauth:
      tokenURL: https://oauth2.googleapis.com/token
      clientID: ${NAVI_TEST_CLIENT_ID}
      clientSecret: ${NAVI_TEST_CLIENT_SECRET}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	t.Setenv("NAVI_TEST_CLIENT_ID", "client-id-from-env")
	t.Setenv("NAVI_TEST_CLIENT_SECRET", "secret-from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "client-id-from-env", cfg.Providers[ProviderGmail].OAuth.ClientID)
	assert.Equal(t, "secret-from-env", cfg.Providers[ProviderGmail].OAuth.ClientSecret)
}
