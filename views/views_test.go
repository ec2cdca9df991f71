package views_test

import (
	"bytes"
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/views"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLogin(t *testing.T) {
	t.Parallel()

	out := renderString(t, views.Login(views.LoginPage{
		AuthURL: "https://accounts.google.com/o/oauth2/auth?client_id=x&state=abc",
	}))

	require.Contains(t, out, "<title>Sign in · drivedesk</title>")
	require.Contains(t, out, `href="https://accounts.google.com/o/oauth2/auth?client_id=x&amp;state=abc"`)
	require.NotContains(t, out, "Sign out", "signed-out pages have no user menu")
}

func TestBrowser(t *testing.T) {
	t.Parallel()

	page := views.BrowserPage{
		Page: views.Page{Flash: "Folder created", User: "ana@example.com", Lang: language.English},
		Files: []gdrive.File{
			{ID: "f1", Name: "Reports", MimeType: gdrive.MimeFolder},
			{ID: "d1", Name: "Plan", MimeType: "application/vnd.google-apps.document"},
			{ID: "b1", Name: "<b>notes</b>.txt", MimeType: "text/plain", Size: 1536},
		},
	}

	out := renderString(t, views.Browser(page))

	require.Contains(t, out, "Folder created")
	require.Contains(t, out, "ana@example.com")
	require.Contains(t, out, `href="/drive/folders_and_files?file_id=f1"`)
	require.Contains(t, out, `href="/drive/export_file_to_pdf?file_id=d1"`)
	require.NotContains(t, out, `export_file_to_pdf?file_id=b1`, "binary files cannot be exported")
	require.Contains(t, out, "1.5 KB")
	require.Contains(t, out, `title="1,536 bytes"`)
	require.Contains(t, out, "&lt;b&gt;notes&lt;/b&gt;.txt", "names are escaped")
	require.Contains(t, out, `action="/drive/create_files?folder_id="`)
}

func TestBrowser_FolderAndEmpty(t *testing.T) {
	t.Parallel()

	out := renderString(t, views.Browser(views.BrowserPage{FolderID: "abc 1"}))
	require.Contains(t, out, `action="/drive/create_files?folder_id=abc%201"`)
	require.Contains(t, out, `name="parent_folder_id" value="abc 1"`)
	require.Contains(t, out, "Nothing here.")
}

func TestSearch(t *testing.T) {
	t.Parallel()

	out := renderString(t, views.Search(views.SearchPage{PageSize: 15}))
	require.Contains(t, out, `name="page_size" value="15"`)
	require.Contains(t, out, "Without filters the search lists your folders.")

	out = renderString(t, views.Search(views.SearchPage{
		FileName: "report.pdf",
		PageSize: 15,
		Files:    []gdrive.File{{ID: "r1", Name: "report.pdf", MimeType: "application/pdf", Size: 10}},
	}))
	require.Contains(t, out, `value="report.pdf"`)
	require.Contains(t, out, `href="/drive/download?file_id=r1"`)
	require.NotContains(t, out, "Without filters")
}

func TestTrash(t *testing.T) {
	t.Parallel()

	out := renderString(t, views.Trash(views.TrashPage{
		Files: []gdrive.File{{ID: "t1", Name: "old.txt", Trashed: true}},
	}))
	require.Contains(t, out, `href="/drive/recover_from_trash?file_id=t1"`)
	require.Contains(t, out, `href="/drive/delete_file?file_id=t1"`)
	require.Contains(t, out, `href="/drive/empty_trash"`)

	out = renderString(t, views.Trash(views.TrashPage{}))
	require.Contains(t, out, "Trash is empty.")
	require.NotContains(t, out, "/drive/empty_trash")
}

func TestError(t *testing.T) {
	t.Parallel()

	out := renderString(t, views.Error(views.ErrorPage{
		Page:      views.Page{Title: "Not Found"},
		Code:      404,
		Message:   "No file with that name",
		RequestID: "req-42",
	}))
	require.Contains(t, out, "404 · Not Found")
	require.Contains(t, out, "No file with that name")
	require.Contains(t, out, "req-42")
}

func TestAssets(t *testing.T) {
	t.Parallel()

	data, err := fs.ReadFile(views.Assets, "static/style.css")
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tag   language.Tag
		bytes int64
		want  string
	}{
		{"zero", language.English, 0, "0 B"},
		{"bytes", language.English, 512, "512 B"},
		{"kilobytes", language.English, 1536, "1.5 KB"},
		{"megabytes", language.English, 5242880, "5.0 MB"},
		{"gigabytes", language.English, 1610612736, "1.5 GB"},
		{"terabytes", language.English, 1099511627776, "1.0 TB"},
		{"german decimal comma", language.German, 1536, "1,5 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, views.FormatSize(tt.tag, tt.bytes))
		})
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1,234,567 bytes", views.FormatBytes(language.English, 1234567))
	require.Equal(t, "1.234.567 bytes", views.FormatBytes(language.German, 1234567))
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	require.Empty(t, views.FormatTime(time.Time{}))

	sameYear := time.Date(time.Now().Year(), time.March, 15, 10, 30, 0, 0, time.UTC)
	require.Equal(t, "Mar 15 10:30", views.FormatTime(sameYear))

	require.Equal(t, "Dec 25 2020", views.FormatTime(time.Date(2020, time.December, 25, 8, 0, 0, 0, time.UTC)))
}

func TestLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.English},
		{"de-DE,de;q=0.9,en;q=0.8", language.German},
		{"fr-CA", language.French},
		{"ja", language.English},
		{"pl;q=0.5,es;q=0.9", language.Spanish},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, views.Locale(tt.header))
		})
	}
}
