package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

const (
	// GoogleProviderName is the identifier for Google OAuth provider.
	GoogleProviderName = "google"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"

	refreshTimeout = 30 * time.Second
)

// GoogleDefaultScopes returns the scopes needed to browse and modify Drive.
func GoogleDefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/userinfo.profile",
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/drive.file",
		"https://www.googleapis.com/auth/docs",
		"https://www.googleapis.com/auth/drive",
		"https://www.googleapis.com/auth/drive.metadata.readonly",
	}
}

// GoogleProvider implements Provider for Google OAuth.
type GoogleProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	refreshes  singleflight.Group
}

// NewGoogleProvider creates a new Google OAuth provider.
// Returns an error if ClientID or ClientSecret is empty.
func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}

	endpoint := googleOAuth.Endpoint
	if o.endpoint != nil {
		endpoint = *o.endpoint
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: o.httpClient,
	}, nil
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return GoogleProviderName
}

// AuthCodeURL generates the authorization URL.
// Offline access with a forced consent prompt is always requested so that
// Google issues a refresh token on every login.
func (p *GoogleProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	all := append([]oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}, opts...)
	return p.config.AuthCodeURL(state, all...)
}

// Exchange trades an authorization code for tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := *p.config
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}

	tok, err := cfg.Exchange(p.contextWithHTTPClient(ctx), code)
	if err != nil {
		return nil, errors.Join(ErrExchangeFailed, err)
	}
	return tok, nil
}

// FetchUserInfo retrieves user information from Google.
// Returns ErrEmailNotVerified if the user's email is not verified.
func (p *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	ctx = p.contextWithHTTPClient(ctx)
	client := p.config.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, fmt.Errorf("fetch userinfo: %w", err))
	}
	if resp == nil {
		return nil, ErrNilResponse
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, errors.Join(ErrRequestFailed, fmt.Errorf("userinfo: status=%d body=%s", resp.StatusCode, body))
	}

	var u googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, errors.Join(ErrDecodeFailed, fmt.Errorf("decode userinfo: %w", err))
	}

	if !u.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}

	return &UserInfo{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Picture: u.Picture,
	}, nil
}

// TokenSource returns a refreshing token source.
// Concurrent refreshes of the same refresh token share one round trip to
// the token endpoint.
func (p *GoogleProvider) TokenSource(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) oauth2.TokenSource {
	return &refreshingSource{
		ctx:       p.contextWithHTTPClient(ctx),
		provider:  p,
		current:   token,
		onRefresh: onRefresh,
	}
}

// refresh trades refreshToken for a new access token. The round trip is
// shared by every waiter, so it runs detached from the caller that happened
// to start it.
func (p *GoogleProvider) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	v, err, _ := p.refreshes.Do(refreshToken, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		src := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return src.Token()
	})
	if err != nil {
		return nil, classifyRefreshError(err)
	}

	// Each caller gets its own copy; the shared result must stay untouched.
	tok := *v.(*oauth2.Token)
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return &tok, nil
}

// classifyRefreshError separates a rejected grant from an endpoint that could
// not answer. Only a 4xx from the token endpoint means the refresh token is
// no longer usable.
func classifyRefreshError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil &&
		rerr.Response.StatusCode >= http.StatusBadRequest &&
		rerr.Response.StatusCode < http.StatusInternalServerError {
		return errors.Join(ErrRefreshFailed, err)
	}
	return errors.Join(ErrRefreshUnavailable, err)
}

func (p *GoogleProvider) contextWithHTTPClient(ctx context.Context) context.Context {
	if p.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	return ctx
}

type refreshingSource struct {
	ctx       context.Context
	provider  *GoogleProvider
	current   *oauth2.Token
	onRefresh func(*oauth2.Token)
	mu        sync.Mutex
}

func (s *refreshingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Valid() {
		return s.current, nil
	}
	if s.current == nil || s.current.RefreshToken == "" {
		return nil, ErrTokenExpired
	}

	tok, err := s.provider.refresh(s.ctx, s.current.RefreshToken)
	if err != nil {
		return nil, err
	}

	s.current = tok
	if s.onRefresh != nil {
		s.onRefresh(tok)
	}
	return tok, nil
}

// googleUserInfo represents the response from Google's userinfo endpoint.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}
