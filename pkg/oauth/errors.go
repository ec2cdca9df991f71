package oauth

import "errors"

var (
	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrExchangeFailed is returned when the authorization code cannot be traded for a token.
	ErrExchangeFailed = errors.New("oauth: code exchange failed")

	// ErrTokenExpired is returned when the access token expired and there is
	// no refresh token to renew it.
	ErrTokenExpired = errors.New("oauth: token expired")

	// ErrRefreshFailed is returned when the provider rejects a refresh
	// token. The stored credentials are no longer usable.
	ErrRefreshFailed = errors.New("oauth: token refresh failed")

	// ErrRefreshUnavailable is returned when the token endpoint could not
	// be reached or answered with a server error. The refresh token may
	// still be valid.
	ErrRefreshUnavailable = errors.New("oauth: token endpoint unavailable")

	// ErrEmailNotVerified is returned when the provider reports
	// that the user's email is not verified.
	ErrEmailNotVerified = errors.New("oauth: email not verified")

	ErrNilResponse   = errors.New("oauth: nil response from provider")
	ErrFetchFailed   = errors.New("oauth: failed to fetch from provider")
	ErrRequestFailed = errors.New("oauth: request returned non-OK status")
	ErrDecodeFailed  = errors.New("oauth: failed to decode response")
)
