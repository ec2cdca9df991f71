// Package gdrive is a thin client for the Google Drive v3 file API.
//
// Every exported method maps to one file operation of the web UI: listing a
// folder, searching, downloading, uploading, moving, trashing, restoring,
// deleting and exporting. Results are returned as plain [File] values so that
// callers never touch the generated SDK types.
//
// A [Client] is built per request from an oauth2.TokenSource:
//
//	ts := provider.TokenSource(ctx, sess.Credentials, sess.SetCredentials)
//	client, err := gdrive.New(ctx, ts, gdrive.WithLogger(logger))
//	files, err := client.ListChildren(ctx, folderID)
//
// Idempotent requests are retried on 408, 429 and 5xx responses with
// exponential backoff and jitter. Provider failures are returned as *[Error]
// values wrapping one of the package sentinels, so handlers can branch with
// errors.Is:
//
//	if errors.Is(err, gdrive.ErrNotFound) {
//		return c.Error(http.StatusNotFound, "File not found")
//	}
//
// Expired or revoked credentials surface as [ErrUnauthorized].
package gdrive
