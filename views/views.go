package views

import (
	"cmp"
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Assets holds the stylesheet and other static files.
// Mount it with drivedesk.WithStaticFiles("/static/", views.Assets, "static").
var Assets fs.FS = staticFS

var funcs = template.FuncMap{
	"exportable": exportable,
}

var (
	loginTmpl   = parse("login")
	browserTmpl = parse("browser")
	searchTmpl  = parse("search")
	trashTmpl   = parse("trash")
	errorTmpl   = parse("error")
)

func parse(page string) *template.Template {
	return template.Must(template.New(page).Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/"+page+".html",
	))
}

// Page is the data every page shares.
type Page struct {
	Title string
	Flash string
	User  string // signed-in user's email or name; empty when signed out
	Lang  language.Tag
}

// Size formats a byte count for the page's locale.
func (p Page) Size(bytes int64) string {
	return FormatSize(p.Lang, bytes)
}

// Bytes formats an exact byte count for the page's locale.
func (p Page) Bytes(bytes int64) string {
	return FormatBytes(p.Lang, bytes)
}

// Time formats a modification time.
func (p Page) Time(t time.Time) string {
	return FormatTime(t)
}

// LoginPage links to the provider's consent screen.
type LoginPage struct {
	Page
	AuthURL string
}

// BrowserPage lists the children of one folder.
type BrowserPage struct {
	Page
	FolderID string // empty for the root folder
	Files    []gdrive.File
}

// SearchPage shows the search form and its results.
type SearchPage struct {
	Page
	FileName string
	FolderID string
	PageSize int
	Files    []gdrive.File
}

// TrashPage lists trashed files.
type TrashPage struct {
	Page
	Files []gdrive.File
}

// ErrorPage describes a failed request.
type ErrorPage struct {
	Page
	Code      int
	Message   string
	RequestID string
}

// Login renders the sign-in page.
func Login(data LoginPage) templ.Component {
	data.Title = cmp.Or(data.Title, "Sign in")
	return render(loginTmpl, data)
}

// Browser renders a folder listing with upload and create-folder forms.
func Browser(data BrowserPage) templ.Component {
	data.Title = cmp.Or(data.Title, "My Drive")
	return render(browserTmpl, data)
}

// Search renders the search page.
func Search(data SearchPage) templ.Component {
	data.Title = cmp.Or(data.Title, "Search")
	return render(searchTmpl, data)
}

// Trash renders the trash listing.
func Trash(data TrashPage) templ.Component {
	data.Title = cmp.Or(data.Title, "Trash")
	return render(trashTmpl, data)
}

// Error renders an error page.
func Error(data ErrorPage) templ.Component {
	data.Title = cmp.Or(data.Title, "Error")
	return render(errorTmpl, data)
}

func render(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "layout", data)
	})
}

// exportable reports whether the provider can convert the file to PDF.
// Only native Google documents can be exported.
func exportable(f gdrive.File) bool {
	return !f.IsFolder() && strings.HasPrefix(f.MimeType, "application/vnd.google-apps.")
}
