package config

// Provider keys known to the default configuration.
const (
	ProviderGmail     = "gmail"
	ProviderGoogleCal = "googlecal"
	ProviderOutlook   = "outlook"
	ProviderNotion    = "notion"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	microsoftTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

// GetDefaultConfig returns the default configuration for navi: all four
// providers enabled against their production endpoints, client
// credentials taken from the environment.
func GetDefaultConfig() NaviConfig {
	return NaviConfig{
		Providers: map[string]ProviderConfig{
			ProviderGmail: {
				Enabled: true,
				OAuth: OAuthConfig{
					TokenURL:     googleTokenURL,
					ClientID:     "${GOOGLE_CLIENT_ID}",
					ClientSecret: "${GOOGLE_CLIENT_SECRET}",
				},
			},
			ProviderGoogleCal: {
				Enabled: true,
				OAuth: OAuthConfig{
					TokenURL:     googleTokenURL,
					ClientID:     "${GOOGLE_CLIENT_ID}",
					ClientSecret: "${GOOGLE_CLIENT_SECRET}",
				},
			},
			ProviderOutlook: {
				Enabled: true,
				OAuth: OAuthConfig{
					TokenURL:     microsoftTokenURL,
					ClientID:     "${MICROSOFT_CLIENT_ID}",
					ClientSecret: "${MICROSOFT_CLIENT_SECRET}",
					Scopes:       []string{"https://graph.microsoft.com/.default"},
				},
			},
			ProviderNotion: {
				Enabled: true,
				OAuth: OAuthConfig{
					Static: true,
				},
			},
		},
		Aggregator: AggregatorConfig{
			CacheTTLSeconds:  120,
			CreatePreference: []string{ProviderGoogleCal, ProviderOutlook, ProviderNotion},
		},
		RemoteTimeoutSeconds: 15,
		LogLevel:             "info",
	}
}
