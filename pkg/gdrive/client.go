package gdrive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	// MimeFolder is the MIME type Drive assigns to folders.
	MimeFolder = "application/vnd.google-apps.folder"
	// MimePDF is the export format offered for documents.
	MimePDF = "application/pdf"

	defaultUploadConcurrency = 4
)

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient        *http.Client
	logger            *slog.Logger
	endpoint          string
	maxRetries        int
	baseBackoff       time.Duration
	uploadConcurrency int
	sleepFunc         func(context.Context, time.Duration) error
}

// WithHTTPClient sets the base client whose transport carries the requests.
// Authorization and retries are layered on top of it.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithEndpoint points the client at another Drive API root, e.g. a test server.
// The value must end with a slash, like "http://127.0.0.1:8080/drive/v3/".
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
	}
}

// WithLogger sets the logger for retries and operations.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRetry sets the maximum number of retries and the base backoff.
// Default: 3 retries, 500ms.
func WithRetry(maxRetries int, baseBackoff time.Duration) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
		o.baseBackoff = baseBackoff
	}
}

// WithUploadConcurrency bounds the number of parallel uploads.
// Default: 4.
func WithUploadConcurrency(n int) Option {
	return func(o *options) {
		o.uploadConcurrency = n
	}
}

// Client performs file operations on behalf of one user.
// It is cheap to create and is meant to live for a single request.
type Client struct {
	svc               *drive.Service
	logger            *slog.Logger
	uploadConcurrency int
}

// New creates a Client that authorizes every request with tokens from ts.
func New(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	if ts == nil {
		return nil, ErrUnauthorized
	}

	o := &options{
		maxRetries:        defaultMaxRetries,
		baseBackoff:       defaultBaseBackoff,
		uploadConcurrency: defaultUploadConcurrency,
		sleepFunc:         timeSleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	base := http.DefaultTransport
	var timeout time.Duration
	if o.httpClient != nil {
		if o.httpClient.Transport != nil {
			base = o.httpClient.Transport
		}
		timeout = o.httpClient.Timeout
	}

	hc := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base: &retryTransport{
				base:        base,
				logger:      o.logger,
				maxRetries:  max(o.maxRetries, 0),
				baseBackoff: o.baseBackoff,
				sleepFunc:   o.sleepFunc,
			},
		},
	}

	svcOpts := []option.ClientOption{option.WithHTTPClient(hc)}
	if o.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(o.endpoint))
	}

	svc, err := drive.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("gdrive: create service: %w", err)
	}

	return &Client{
		svc:               svc,
		logger:            o.logger,
		uploadConcurrency: max(o.uploadConcurrency, 1),
	}, nil
}
