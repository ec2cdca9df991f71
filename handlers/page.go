package handlers

import (
	"cmp"

	"github.com/dmitrymomot/drivedesk"
	"github.com/dmitrymomot/drivedesk/pkg/session"
	"github.com/dmitrymomot/drivedesk/views"
)

// Route paths shared by the handlers.
const (
	LoginPath   = "/auth/login"
	LogoutPath  = "/auth/logout"
	BrowserPath = "/drive/folders_and_files"
	TrashPath   = "/drive/list_files_in_trash"
)

// Session value keys.
const (
	emailKey = "email"
	nameKey  = "name"
)

const flashKey = "notice"

// page builds the data every view shares. Reading the flash consumes it.
func page(c drivedesk.Context, title string) views.Page {
	p := views.Page{
		Title: title,
		Lang:  views.Locale(c.Header("Accept-Language")),
	}

	var notice string
	if err := c.Flash(flashKey, &notice); err == nil {
		p.Flash = notice
	}

	if sess, err := c.Session(); err == nil && sess != nil && sess.HasCredentials() {
		p.User = cmp.Or(session.ValueOr(sess, emailKey, ""), session.ValueOr(sess, nameKey, ""), "Signed in")
	}
	return p
}

// notify sets a flash notice for the next page. Failing to set it is not
// worth failing the request over.
func notify(c drivedesk.Context, msg string) {
	if err := c.SetFlash(flashKey, msg); err != nil {
		c.LogWarn("failed to set flash", "error", err)
	}
}
