package gdrive

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/api/drive/v3"
)

// CreateFolder creates a folder under parentID. An empty or "null" parent
// means the root folder.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (File, error) {
	if strings.TrimSpace(name) == "" {
		return File{}, ErrEmptyName
	}

	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: MimeFolder,
		Parents:  []string{rootID(parentID)},
	}).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return File{}, wrap("create folder", err)
	}

	c.logger.InfoContext(ctx, "folder created", slog.String("folder_id", f.Id))
	return fromDrive(f), nil
}

// Move re-parents a file into newParentID, detaching it from all previous parents.
func (c *Client) Move(ctx context.Context, id, newParentID string) (File, error) {
	meta, err := c.Get(ctx, id)
	if err != nil {
		return File{}, err
	}

	call := c.svc.Files.Update(meta.ID, &drive.File{}).AddParents(rootID(newParentID))
	if len(meta.Parents) > 0 {
		call = call.RemoveParents(strings.Join(meta.Parents, ","))
	}

	f, err := call.Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return File{}, wrap("move", err)
	}
	return fromDrive(f), nil
}

// Trash moves a file to the trash.
func (c *Client) Trash(ctx context.Context, id string) (File, error) {
	f, err := c.svc.Files.Update(id, &drive.File{Trashed: true}).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return File{}, wrap("trash", err)
	}
	return fromDrive(f), nil
}

// Restore takes a file out of the trash.
func (c *Client) Restore(ctx context.Context, id string) (File, error) {
	// false is the zero value and would be dropped from the request body otherwise.
	patch := &drive.File{Trashed: false, ForceSendFields: []string{"Trashed"}}

	f, err := c.svc.Files.Update(id, patch).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return File{}, wrap("restore", err)
	}
	return fromDrive(f), nil
}

// EmptyTrash permanently deletes every trashed file.
func (c *Client) EmptyTrash(ctx context.Context) error {
	if err := c.svc.Files.EmptyTrash().Context(ctx).Do(); err != nil {
		return wrap("empty trash", err)
	}
	c.logger.InfoContext(ctx, "trash emptied")
	return nil
}

// Delete permanently deletes a file, skipping the trash.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return wrap("delete", err)
	}
	c.logger.InfoContext(ctx, "file deleted", slog.String("file_id", id))
	return nil
}
