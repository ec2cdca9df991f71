package gdrive

import (
	"io"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// fileFields is the projection requested for every file.
const fileFields = googleapi.Field("id, name, mimeType, parents, size, trashed, modifiedTime")

// File is the subset of Drive metadata the application works with.
type File struct {
	ID           string
	Name         string
	MimeType     string
	Parents      []string
	Size         int64
	Trashed      bool
	ModifiedTime time.Time
}

// IsFolder reports whether the file is a folder.
func (f File) IsFolder() bool {
	return f.MimeType == MimeFolder
}

// Parent returns the first parent ID or an empty string.
func (f File) Parent() string {
	if len(f.Parents) == 0 {
		return ""
	}
	return f.Parents[0]
}

// Content is a file body streamed from the provider.
// The caller must close Body.
type Content struct {
	File
	Body io.ReadCloser
}

// Upload is one file to create or to replace.
type Upload struct {
	Name     string
	MimeType string
	Content  io.Reader
}

func fromDrive(f *drive.File) File {
	if f == nil {
		return File{}
	}
	out := File{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Parents:  f.Parents,
		Size:     f.Size,
		Trashed:  f.Trashed,
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			out.ModifiedTime = t
		}
	}
	return out
}

func fromDriveList(files []*drive.File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		out = append(out, fromDrive(f))
	}
	return out
}

// rootID normalizes the ways a caller can say "the root folder".
func rootID(id string) string {
	if id == "" || id == "null" {
		return "root"
	}
	return id
}
