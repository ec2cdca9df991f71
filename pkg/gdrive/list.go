package gdrive

import (
	"context"
	"log/slog"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const listFields = googleapi.Field("nextPageToken, files(" + string(fileFields) + ")")

// Root returns the metadata of the user's root folder.
func (c *Client) Root(ctx context.Context) (File, error) {
	return c.Get(ctx, "root")
}

// Get returns the metadata of a file or folder.
func (c *Client) Get(ctx context.Context, id string) (File, error) {
	f, err := c.svc.Files.Get(rootID(id)).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return File{}, wrap("get", err)
	}
	return fromDrive(f), nil
}

// ListChildren lists the non-trashed children of a folder, following all pages.
// An empty folderID lists the root folder.
func (c *Client) ListChildren(ctx context.Context, folderID string) ([]File, error) {
	files, err := c.listAll(ctx, childrenQuery(folderID))
	if err != nil {
		return nil, wrap("list", err)
	}
	c.logger.DebugContext(ctx, "drive folder listed",
		slog.String("folder_id", rootID(folderID)),
		slog.Int("count", len(files)),
	)
	return files, nil
}

// ListTrash lists every trashed file.
func (c *Client) ListTrash(ctx context.Context) ([]File, error) {
	files, err := c.listAll(ctx, trashQuery)
	if err != nil {
		return nil, wrap("list trash", err)
	}
	return files, nil
}

// Search returns a single page of files matching q.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]File, error) {
	res, err := c.svc.Files.List().
		Q(q.build()).
		Spaces("drive").
		PageSize(q.pageSize()).
		Fields(listFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrap("search", err)
	}
	return fromDriveList(res.Files), nil
}

func (c *Client) listAll(ctx context.Context, query string) ([]File, error) {
	var files []File
	err := c.svc.Files.List().
		Q(query).
		Spaces("drive").
		OrderBy("folder,name").
		PageSize(maxPageSize).
		Fields(listFields).
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, fromDriveList(page.Files)...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return files, nil
}
