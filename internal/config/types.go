package config

// NaviConfig is the top-level configuration structure for navi.
type NaviConfig struct {
	// Providers maps provider keys to their configuration. Providers
	// absent from the map (or disabled) are not registered at startup.
	Providers map[string]ProviderConfig `yaml:"providers"`

	Aggregator AggregatorConfig `yaml:"aggregator"`

	// RemoteTimeoutSeconds bounds every remote provider call (default: 15).
	RemoteTimeoutSeconds int `yaml:"remoteTimeoutSeconds,omitempty"`

	// CredentialFile is the path of the JSON credential store used by
	// the CLI (default: ~/.config/navi/credentials.json).
	CredentialFile string `yaml:"credentialFile,omitempty"`

	// LogLevel is one of debug, info, warn, error (default: info).
	LogLevel string `yaml:"logLevel,omitempty"`
}

// ProviderConfig configures one backend service integration.
type ProviderConfig struct {
	// Enabled controls whether the provider is registered (default: true
	// for providers present in the defaults).
	Enabled bool `yaml:"enabled"`

	// BaseURL overrides the provider's remote API base URL. Empty means
	// the provider's production endpoint; tests point this at a local
	// fake server.
	BaseURL string `yaml:"baseURL,omitempty"`

	// DatabaseID identifies the calendar database for database-backed
	// providers (Notion). Ignored by the others.
	DatabaseID string `yaml:"databaseId,omitempty"`

	OAuth OAuthConfig `yaml:"oauth"`
}

// OAuthConfig holds the refresh-flow settings for one provider. Values
// may reference environment variables with $NAME / ${NAME} syntax; they
// are expanded at load time.
type OAuthConfig struct {
	TokenURL     string   `yaml:"tokenURL,omitempty"`
	ClientID     string   `yaml:"clientID,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`

	// Static marks API-key style credentials that are never refreshed
	// (Notion integration tokens).
	Static bool `yaml:"static,omitempty"`
}

// AggregatorConfig configures the unified calendar aggregator.
type AggregatorConfig struct {
	// CacheTTLSeconds bounds how long merged and per-provider results
	// are served from cache (default: 120).
	CacheTTLSeconds int `yaml:"cacheTTLSeconds,omitempty"`

	// CreatePreference is the provider order tried by the
	// create-anywhere path when no target provider is given.
	CreatePreference []string `yaml:"createPreference,omitempty"`
}
