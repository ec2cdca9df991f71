package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// UserInfo is the profile returned by the provider's userinfo endpoint.
type UserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Provider abstracts the authorization-code flow of one identity provider.
type Provider interface {
	// Name returns the provider identifier, e.g. "google".
	Name() string

	// AuthCodeURL generates the consent page URL for the given state.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades an authorization code for tokens.
	// An empty redirectURI uses the configured one.
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)

	// FetchUserInfo retrieves the profile of the token owner.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)

	// TokenSource returns a source that yields token while it is valid and
	// refreshes it afterwards. onRefresh, if not nil, receives every new token.
	TokenSource(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) oauth2.TokenSource
}
