package gdrive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Download streams the content of a file.
func (c *Client) Download(ctx context.Context, id string) (*Content, error) {
	meta, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta.IsFolder() {
		return nil, &Error{
			Op:         "download",
			StatusCode: http.StatusBadRequest,
			Message:    "folders cannot be downloaded",
			Err:        ErrBadRequest,
		}
	}

	resp, err := c.svc.Files.Get(meta.ID).Context(ctx).Download()
	if err != nil {
		return nil, wrap("download", err)
	}
	return &Content{File: meta, Body: resp.Body}, nil
}

// DownloadByName streams the content of the only non-trashed file called name.
func (c *Client) DownloadByName(ctx context.Context, name string) (*Content, error) {
	res, err := c.svc.Files.List().
		Q(nameQuery(name)).
		Spaces("drive").
		PageSize(2).
		Fields(listFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrap("download", err)
	}

	switch len(res.Files) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, name)
	case 1:
		return c.Download(ctx, res.Files[0].Id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousName, name)
	}
}

// Export converts a document to mimeType and streams the result.
func (c *Client) Export(ctx context.Context, id, mimeType string) (*Content, error) {
	meta, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := c.svc.Files.Export(meta.ID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, wrap("export", err)
	}

	meta.MimeType = mimeType
	meta.Size = resp.ContentLength
	return &Content{File: meta, Body: resp.Body}, nil
}

// Upload creates files in folderID concurrently. An empty or "null" folder
// means the root folder. It returns the ID of the folder the files landed in
// together with the created files, in input order.
func (c *Client) Upload(ctx context.Context, folderID string, uploads []Upload) (string, []File, error) {
	if len(uploads) == 0 {
		return "", nil, ErrNoFiles
	}
	for _, u := range uploads {
		if u.Name == "" {
			return "", nil, ErrEmptyName
		}
	}

	parent := rootID(folderID)
	created := make([]File, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.uploadConcurrency)
	for i, u := range uploads {
		g.Go(func() error {
			call := c.svc.Files.Create(&drive.File{
				Name:     u.Name,
				MimeType: u.MimeType,
				Parents:  []string{parent},
			}).Fields(fileFields).Context(gctx)

			f, err := call.Media(u.Content, mediaOptions(u.MimeType)...).Do()
			if err != nil {
				return wrap("upload", err)
			}
			created[i] = fromDrive(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, c.partialUpload(ctx, parent, created, err)
	}

	if p := created[0].Parent(); p != "" {
		parent = p
	}

	c.logger.InfoContext(ctx, "files uploaded",
		slog.String("folder_id", parent),
		slog.Int("count", len(created)),
	)
	return parent, created, nil
}

// partialUpload reports the files a failed batch left behind.
func (c *Client) partialUpload(ctx context.Context, parent string, created []File, err error) error {
	var done []File
	for _, f := range created {
		if f.ID != "" {
			done = append(done, f)
		}
	}
	if len(done) == 0 {
		return err
	}

	ids := make([]string, len(done))
	for i, f := range done {
		ids[i] = f.ID
	}
	c.logger.WarnContext(ctx, "upload failed with files already created",
		slog.String("folder_id", parent),
		slog.Any("file_ids", ids),
		slog.Any("error", err),
	)
	return &UploadError{Created: done, Err: err}
}

// Replace overwrites the content of an existing file.
func (c *Client) Replace(ctx context.Context, id string, u Upload) (File, error) {
	f, err := c.svc.Files.Update(id, &drive.File{}).
		Media(u.Content, mediaOptions(u.MimeType)...).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return File{}, wrap("replace", err)
	}
	return fromDrive(f), nil
}

func mediaOptions(mimeType string) []googleapi.MediaOption {
	if mimeType == "" {
		return nil
	}
	return []googleapi.MediaOption{googleapi.ContentType(mimeType)}
}
