package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/drivedesk"
	"github.com/dmitrymomot/drivedesk/middlewares"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/sanitizer"
	"github.com/dmitrymomot/drivedesk/views"
)

const (
	defaultMaxUploadSize = 32 << 20
	defaultPageSize      = 15
	// multipartMemory is how much of an upload is kept in memory before
	// the rest is spooled to disk.
	multipartMemory = 8 << 20
)

// DriveHandler exposes the provider's file operations as routes.
// Every /drive route requires credentials.
type DriveHandler struct {
	maxUploadSize int64
	pageSize      int
	loginPath     string
}

// DriveOption configures DriveHandler.
type DriveOption func(*DriveHandler)

// WithMaxUploadSize caps the body of upload requests.
func WithMaxUploadSize(n int64) DriveOption {
	return func(h *DriveHandler) {
		if n > 0 {
			h.maxUploadSize = n
		}
	}
}

// WithPageSize sets the default number of search results.
func WithPageSize(n int) DriveOption {
	return func(h *DriveHandler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithLoginPath sets where requests without credentials are sent.
func WithLoginPath(path string) DriveOption {
	return func(h *DriveHandler) {
		h.loginPath = path
	}
}

// NewDrive creates the drive handler.
func NewDrive(opts ...DriveOption) *DriveHandler {
	h := &DriveHandler{
		maxUploadSize: defaultMaxUploadSize,
		pageSize:      defaultPageSize,
		loginPath:     LoginPath,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes implements drivedesk.Handler.
func (h *DriveHandler) Routes(r drivedesk.Router) {
	r.GET("/", h.home)

	r.Route("/drive", func(r drivedesk.Router) {
		r.Use(middlewares.RequireCredentials(h.loginPath))

		r.GET("/folders_and_files", h.foldersAndFiles)
		r.GET("/search", h.search)
		r.GET("/download", h.download)
		r.POST("/create_files", h.createFiles)
		r.POST("/update_file", h.updateFile)
		r.GET("/create_folder", h.createFolder)
		r.GET("/move_file", h.moveFile)
		r.GET("/move_to_trash", h.moveToTrash)
		r.GET("/recover_from_trash", h.recoverFromTrash)
		r.GET("/empty_trash", h.emptyTrash)
		r.GET("/list_files_in_trash", h.listTrash)
		r.GET("/delete_file", h.deleteFile)
		r.GET("/export_file_to_pdf", h.exportPDF)
	})
}

func (h *DriveHandler) home(c drivedesk.Context) error {
	return c.Redirect(http.StatusSeeOther, BrowserPath)
}

// foldersAndFiles lists a folder, or streams the file when file_id names one.
func (h *DriveHandler) foldersAndFiles(c drivedesk.Context) error {
	drv, err := c.Drive()
	if err != nil {
		return err
	}

	id := c.Query("file_id")
	if id != "" {
		f, err := drv.Get(c.Context(), id)
		if err != nil {
			return err
		}
		if !f.IsFolder() {
			content, err := drv.Download(c.Context(), f.ID)
			if err != nil {
				return err
			}
			return h.stream(c, content)
		}
	}

	files, err := drv.ListChildren(c.Context(), id)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, views.Browser(views.BrowserPage{
		Page:     page(c, ""),
		FolderID: id,
		Files:    files,
	}))
}

func (h *DriveHandler) search(c drivedesk.Context) error {
	drv, err := c.Drive()
	if err != nil {
		return err
	}

	q := gdrive.SearchQuery{
		FileName: strings.TrimSpace(c.Query("file_name")),
		FolderID: strings.TrimSpace(c.Query("folder_name")),
		PageSize: drivedesk.QueryDefault(c, "page_size", h.pageSize),
	}

	files, err := drv.Search(c.Context(), q)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, views.Search(views.SearchPage{
		Page:     page(c, ""),
		FileName: q.FileName,
		FolderID: q.FolderID,
		PageSize: q.PageSize,
		Files:    files,
	}))
}

func (h *DriveHandler) download(c drivedesk.Context) error {
	drv, err := c.Drive()
	if err != nil {
		return err
	}

	var content *gdrive.Content
	switch id, name := c.Query("file_id"), c.Query("file_name"); {
	case id != "":
		content, err = drv.Download(c.Context(), id)
	case name != "":
		content, err = drv.DownloadByName(c.Context(), name)
	default:
		return drivedesk.ErrBadRequest("file_id or file_name is required")
	}
	if err != nil {
		return err
	}
	return h.stream(c, content)
}

func (h *DriveHandler) createFiles(c drivedesk.Context) error {
	form, err := h.parseMultipart(c)
	if err != nil {
		return err
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["files"]
	if len(headers) == 0 {
		return drivedesk.ErrBadRequest("No files to upload")
	}

	uploads := make([]gdrive.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		defer f.Close()

		uploads = append(uploads, newUpload(fh, f))
	}

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	parent, created, err := drv.Upload(c.Context(), c.Query("folder_id"), uploads)
	if err != nil {
		var partial *gdrive.UploadError
		if errors.As(err, &partial) {
			notify(c, fmt.Sprintf("Uploaded %d of %d files before the upload failed", len(partial.Created), len(uploads)))
		}
		return err
	}

	if len(created) == 1 {
		notify(c, fmt.Sprintf("Uploaded %q", created[0].Name))
	} else {
		notify(c, fmt.Sprintf("Uploaded %d files", len(created)))
	}
	return c.Redirect(http.StatusSeeOther, folderURL(parent))
}

func (h *DriveHandler) updateFile(c drivedesk.Context) error {
	id, err := required(c, "file_id")
	if err != nil {
		return err
	}

	form, err := h.parseMultipart(c)
	if err != nil {
		return err
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["file"]
	if len(headers) == 0 {
		return drivedesk.ErrBadRequest("No file to upload")
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	updated, err := drv.Replace(c.Context(), id, newUpload(fh, f))
	if err != nil {
		return err
	}

	notify(c, fmt.Sprintf("Replaced the content of %q", updated.Name))
	return c.Redirect(http.StatusSeeOther, folderURL(updated.Parent()))
}

func (h *DriveHandler) createFolder(c drivedesk.Context) error {
	drv, err := c.Drive()
	if err != nil {
		return err
	}

	folder, err := drv.CreateFolder(c.Context(), sanitizer.Name(c.Query("folder_name")), c.Query("parent_folder_id"))
	if err != nil {
		return err
	}

	notify(c, fmt.Sprintf("Created folder %q", folder.Name))
	return c.Redirect(http.StatusSeeOther, folderURL(folder.Parent()))
}

func (h *DriveHandler) moveFile(c drivedesk.Context) error {
	id, err := required(c, "file_id")
	if err != nil {
		return err
	}
	target, err := required(c, "new_folder_id")
	if err != nil {
		return err
	}

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	moved, err := drv.Move(c.Context(), id, target)
	if err != nil {
		return err
	}

	notify(c, fmt.Sprintf("Moved %q", moved.Name))
	return c.Redirect(http.StatusSeeOther, folderURL(target))
}

func (h *DriveHandler) moveToTrash(c drivedesk.Context) error {
	id, err := required(c, "file_id")
	if err != nil {
		return err
	}

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	f, err := drv.Trash(c.Context(), id)
	if err != nil {
		return err
	}

	notify(c, fmt.Sprintf("Moved %q to the trash", f.Name))
	return c.Redirect(http.StatusSeeOther, TrashPath)
}

func (h *DriveHandler) recoverFromTrash(c drivedesk.Context) error {
	id, err := required(c, "file_id")
	if err != nil {
		return err
	}

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	f, err := drv.Restore(c.Context(), id)
	if err != nil {
		return err
	}

	notify(c, fmt.Sprintf("Restored %q", f.Name))
	return c.Redirect(http.StatusSeeOther, BrowserPath)
}

func (h *DriveHandler) emptyTrash(c drivedesk.Context) error {
	drv, err := c.Drive()
	if err != nil {
		return err
	}

	if err := drv.EmptyTrash(c.Context()); err != nil {
		return err
	}

	notify(c, "Trash emptied")
	return c.Redirect(http.StatusSeeOther, TrashPath)
}

func (h *DriveHandler) listTrash(c drivedesk.Context) error {
	drv, err := c.Drive()
	if err != nil {
		return err
	}

	files, err := drv.ListTrash(c.Context())
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, views.Trash(views.TrashPage{
		Page:  page(c, ""),
		Files: files,
	}))
}

func (h *DriveHandler) deleteFile(c drivedesk.Context) error {
	id, err := required(c, "file_id")
	if err != nil {
		return err
	}

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	if err := drv.Delete(c.Context(), id); err != nil {
		return err
	}

	notify(c, "File deleted permanently")
	return c.Redirect(http.StatusSeeOther, BrowserPath)
}

func (h *DriveHandler) exportPDF(c drivedesk.Context) error {
	id, err := required(c, "file_id")
	if err != nil {
		return err
	}

	drv, err := c.Drive()
	if err != nil {
		return err
	}

	content, err := drv.Export(c.Context(), id, gdrive.MimePDF)
	if err != nil {
		return err
	}
	defer content.Body.Close()

	name := content.Name
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return c.Stream(gdrive.MimePDF, name, content.Body)
}

// stream sends downloaded bytes as an attachment.
func (h *DriveHandler) stream(c drivedesk.Context, content *gdrive.Content) error {
	defer content.Body.Close()

	c.LogDebug("streaming file", slog.String("file_id", content.ID), slog.Int64("size", content.Size))
	return c.Stream("application/octet-stream", content.Name, content.Body)
}

// parseMultipart reads an upload form, capping the body at maxUploadSize.
func (h *DriveHandler) parseMultipart(c drivedesk.Context) (*multipart.Form, error) {
	r := c.Request()
	r.Body = http.MaxBytesReader(c.Response(), r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, c.Error(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Uploads are limited to %s", views.FormatSize(views.Locales[0], tooLarge.Limit)),
				drivedesk.WithTitle("Upload too large"), drivedesk.WithError(err))
		case errors.Is(err, http.ErrNotMultipart):
			return nil, drivedesk.ErrBadRequest("Expected a multipart form")
		default:
			return nil, drivedesk.ErrBadRequest("Malformed upload", drivedesk.WithError(err))
		}
	}
	return r.MultipartForm, nil
}

func newUpload(fh *multipart.FileHeader, content multipart.File) gdrive.Upload {
	return gdrive.Upload{
		Name:     sanitizer.Name(fh.Filename),
		MimeType: fh.Header.Get("Content-Type"),
		Content:  content,
	}
}

func required(c drivedesk.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", drivedesk.ErrBadRequest(name + " is required")
	}
	return v, nil
}

func folderURL(id string) string {
	if id == "" {
		return BrowserPath
	}
	return BrowserPath + "?file_id=" + url.QueryEscape(id)
}
