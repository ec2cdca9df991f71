package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/dmitrymomot/drivedesk/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func serve(app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func ok(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}
