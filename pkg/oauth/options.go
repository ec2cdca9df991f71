package oauth

import (
	"net/http"

	"golang.org/x/oauth2"
)

// Option configures an OAuth provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	endpoint   *oauth2.Endpoint
}

// WithHTTPClient sets a custom HTTP client for OAuth requests.
// This is useful for testing with httptest servers or injecting
// custom transports.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithEndpoint overrides the authorization and token endpoints.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(o *options) {
		o.endpoint = &e
	}
}
