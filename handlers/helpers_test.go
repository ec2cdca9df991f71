package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/drivedesk"
	"github.com/dmitrymomot/drivedesk/handlers"
	"github.com/dmitrymomot/drivedesk/middlewares"
	"github.com/dmitrymomot/drivedesk/pkg/cookie"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/oauth"
	"github.com/dmitrymomot/drivedesk/pkg/session"
)

const (
	validToken = "valid-token"
	goodCode   = "good-code"

	// outageRefreshToken makes the token endpoint unreachable.
	outageRefreshToken = "outage"
)

// fakeProvider accepts goodCode and issues tokens as they are.
type fakeProvider struct {
	token *oauth2.Token
	info  *oauth.UserInfo
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	if code != goodCode {
		return nil, errors.Join(oauth.ErrExchangeFailed, errors.New("invalid_grant"))
	}
	return p.token, nil
}

func (p *fakeProvider) FetchUserInfo(context.Context, *oauth2.Token) (*oauth.UserInfo, error) {
	if p.info == nil {
		return nil, oauth.ErrFetchFailed
	}
	return p.info, nil
}

func (p *fakeProvider) TokenSource(_ context.Context, tok *oauth2.Token, _ func(*oauth2.Token)) oauth2.TokenSource {
	switch {
	case tok.Valid():
	case tok.RefreshToken == outageRefreshToken:
		return errSource{errors.Join(oauth.ErrRefreshUnavailable, errors.New("503 Service Unavailable"))}
	default:
		return errSource{oauth.ErrTokenExpired}
	}
	return oauth2.StaticTokenSource(tok)
}

type errSource struct{ err error }

func (s errSource) Token() (*oauth2.Token, error) { return nil, s.err }

type fakeFile struct {
	ID       string
	Name     string
	MimeType string
	Parent   string
	Content  string
	Trashed  bool
}

func (f *fakeFile) json() map[string]any {
	return map[string]any{
		"id":           f.ID,
		"name":         f.Name,
		"mimeType":     f.MimeType,
		"parents":      []string{f.Parent},
		"size":         strconv.Itoa(len(f.Content)),
		"trashed":      f.Trashed,
		"modifiedTime": "2024-05-01T10:00:00Z",
	}
}

// fakeDrive is a minimal Drive v3 REST endpoint backed by a map.
type fakeDrive struct {
	mu    sync.Mutex
	files map[string]*fakeFile
	seq   int
	token string

	// rejectName fails uploads of that name with a quota error.
	rejectName string
}

func newFakeDrive(files ...*fakeFile) *fakeDrive {
	d := &fakeDrive{files: make(map[string]*fakeFile), token: validToken}
	for _, f := range files {
		d.files[f.ID] = f
	}
	return d
}

func (d *fakeDrive) file(id string) *fakeFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.files[id]
}

func (d *fakeDrive) create(name, mimeType, parent, content string) *fakeFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	f := &fakeFile{ID: fmt.Sprintf("new-%d", d.seq), Name: name, MimeType: mimeType, Parent: parent, Content: content}
	d.files[f.ID] = f
	return f
}

var (
	parentsRe = regexp.MustCompile(`'([^']*)' in parents`)
	nameRe    = regexp.MustCompile(`name = '([^']*)'`)
)

func (d *fakeDrive) list(q string) []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []map[string]any{}
	for _, f := range d.files {
		switch {
		case q == "trashed = true":
			if !f.Trashed {
				continue
			}
		case f.Trashed:
			continue
		}
		if m := parentsRe.FindStringSubmatch(q); m != nil && f.Parent != m[1] {
			continue
		}
		if m := nameRe.FindStringSubmatch(q); m != nil && f.Name != m[1] {
			continue
		}
		if q == "mimeType = '"+gdrive.MimeFolder+"'" && f.MimeType != gdrive.MimeFolder {
			continue
		}
		out = append(out, f.json())
	}
	return out
}

func (d *fakeDrive) server(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	handle := func(pattern string, fn func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+d.token {
				writeAPIError(w, http.StatusUnauthorized, "authError")
				return
			}
			fn(w, r)
		})
	}

	handle("GET /drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"files": d.list(r.URL.Query().Get("q"))})
	})
	handle("GET /drive/v3/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		f := d.file(r.PathValue("id"))
		if f == nil {
			writeAPIError(w, http.StatusNotFound, "notFound")
			return
		}
		if r.URL.Query().Get("alt") == "media" {
			_, _ = io.WriteString(w, f.Content)
			return
		}
		writeJSON(w, f.json())
	})
	handle("GET /drive/v3/files/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", r.URL.Query().Get("mimeType"))
		_, _ = io.WriteString(w, "%PDF-1.4 fake")
	})
	handle("POST /drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		var meta struct {
			Name     string   `json:"name"`
			MimeType string   `json:"mimeType"`
			Parents  []string `json:"parents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
			writeAPIError(w, http.StatusBadRequest, "badRequest")
			return
		}
		writeJSON(w, d.create(meta.Name, meta.MimeType, meta.Parents[0], "").json())
	})
	handle("POST /upload/drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		meta, media := readUpload(t, r)
		if meta["name"] == d.rejectName {
			writeAPIError(w, http.StatusForbidden, "storageQuotaExceeded")
			return
		}
		parents, _ := meta["parents"].([]any)
		mimeType, _ := meta["mimeType"].(string)
		writeJSON(w, d.create(meta["name"].(string), mimeType, parents[0].(string), media).json())
	})
	handle("PATCH /upload/drive/v3/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		f := d.file(r.PathValue("id"))
		if f == nil {
			writeAPIError(w, http.StatusNotFound, "notFound")
			return
		}
		_, media := readUpload(t, r)
		d.mu.Lock()
		f.Content = media
		d.mu.Unlock()
		writeJSON(w, f.json())
	})
	handle("PATCH /drive/v3/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		f := d.file(r.PathValue("id"))
		if f == nil {
			writeAPIError(w, http.StatusNotFound, "notFound")
			return
		}
		var patch map[string]any
		_ = json.NewDecoder(r.Body).Decode(&patch)

		d.mu.Lock()
		if v, ok := patch["trashed"].(bool); ok {
			f.Trashed = v
		}
		if p := r.URL.Query().Get("addParents"); p != "" {
			f.Parent = p
		}
		d.mu.Unlock()
		writeJSON(w, f.json())
	})
	handle("DELETE /drive/v3/files/trash", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		for id, f := range d.files {
			if f.Trashed {
				delete(d.files, id)
			}
		}
		d.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	handle("DELETE /drive/v3/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.files[r.PathValue("id")]; !ok {
			writeAPIError(w, http.StatusNotFound, "notFound")
			return
		}
		delete(d.files, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": http.StatusText(code),
			"errors":  []map[string]string{{"reason": reason, "message": http.StatusText(code)}},
		},
	})
}

// readUpload decodes a multipart/related upload into metadata and media.
func readUpload(t *testing.T, r *http.Request) (map[string]any, string) {
	t.Helper()

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)

	mr := multipart.NewReader(r.Body, params["boundary"])

	part, err := mr.NextPart()
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.NewDecoder(part).Decode(&meta))

	part, err = mr.NextPart()
	require.NoError(t, err)
	media, err := io.ReadAll(part)
	require.NoError(t, err)

	return meta, string(media)
}

var sessionSeq atomic.Int64

type env struct {
	app      *drivedesk.App
	store    *session.MemoryStore
	drive    *fakeDrive
	provider *fakeProvider
}

func newEnv(t *testing.T, drive *fakeDrive, opts ...handlers.DriveOption) *env {
	t.Helper()

	srv := drive.server(t)
	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	provider := &fakeProvider{
		token: &oauth2.Token{AccessToken: validToken, RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)},
		info:  &oauth.UserInfo{ID: "u-1", Email: "ana@example.com", Name: "Ana"},
	}

	app := drivedesk.New(
		drivedesk.WithCookieOptions(cookie.WithSecret("test-secret")),
		drivedesk.WithSession(store),
		drivedesk.WithDrive(provider, gdrive.WithEndpoint(srv.URL+"/drive/v3/"), gdrive.WithRetry(0, time.Millisecond),
			gdrive.WithUploadConcurrency(1)),
		drivedesk.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
		drivedesk.WithErrorHandler(handlers.ErrorHandler(handlers.LoginPath)),
		drivedesk.WithNotFoundHandler(handlers.NotFound),
		drivedesk.WithHandlers(handlers.NewAuth(provider), handlers.NewDrive(opts...)),
	)

	return &env{app: app, store: store, drive: drive, provider: provider}
}

// signIn seeds a session holding tok and returns its cookie.
func (e *env) signIn(t *testing.T, tok *oauth2.Token) *http.Cookie {
	t.Helper()

	token := fmt.Sprintf("sess-%d", sessionSeq.Add(1))

	sess := session.New("id-"+token, token, time.Now().Add(time.Hour))
	sess.SetCredentials(tok)
	sess.SetValue("email", "ana@example.com")
	require.NoError(t, e.store.Create(context.Background(), sess))

	return &http.Cookie{Name: "session_id", Value: token}
}

func (e *env) signedIn(t *testing.T) *http.Cookie {
	t.Helper()
	return e.signIn(t, &oauth2.Token{AccessToken: validToken, Expiry: time.Now().Add(time.Hour)})
}

func (e *env) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.app.ServeHTTP(w, req)
	return w
}

func (e *env) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

// cookieNamed returns the last cookie set under name, which is the one the
// browser keeps.
func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
