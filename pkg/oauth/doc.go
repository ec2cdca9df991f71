// Package oauth implements the authorization-code login against Google.
//
// A [Provider] builds the consent URL, trades the callback code for a token,
// reads the user's profile and hands out refreshing token sources. The
// Google implementation always asks for offline access with a consent prompt,
// so the first login yields a refresh token that later requests can use.
//
//	provider, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
//		ClientID:     cfg.ClientID,
//		ClientSecret: cfg.ClientSecret,
//		RedirectURL:  "http://localhost:8000/auth/callback",
//	})
//
//	url := provider.AuthCodeURL(state)
//	tok, err := provider.Exchange(ctx, code, "")
//
//	ts := provider.TokenSource(ctx, tok, func(t *oauth2.Token) {
//		sess.SetCredentials(t)
//	})
//
// Refreshes of the same refresh token are collapsed with singleflight, so a
// page that fans out several Drive calls after expiry hits the token
// endpoint once.
//
// Errors are sentinels prefixed with "oauth:". ErrTokenExpired and
// ErrRefreshFailed mean the user has to log in again. ErrRefreshUnavailable
// means the token endpoint did not answer; the refresh token is kept.
package oauth
