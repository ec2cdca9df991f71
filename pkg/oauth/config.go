package oauth

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string   `mapstructure:"google_oauth_client_id"`
	ClientSecret string   `mapstructure:"google_oauth_client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"google_oauth_scopes"`
}
