package internal

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/oauth"
)

// driveConnector builds provider clients from session credentials.
type driveConnector struct {
	provider oauth.Provider
	opts     []gdrive.Option
}

// connect returns a client whose requests are authorized with tok.
// onRefresh receives every token minted while the client is in use.
func (d *driveConnector) connect(ctx context.Context, tok *oauth2.Token, onRefresh func(*oauth2.Token)) (*gdrive.Client, error) {
	ts := d.provider.TokenSource(ctx, tok, onRefresh)
	return gdrive.New(ctx, ts, d.opts...)
}
