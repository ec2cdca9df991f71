// Package cookie sets and reads HTTP cookies with shared attributes.
//
// Three kinds of cookies are supported:
//
//   - plain cookies, such as the session identifier
//   - signed cookies, whose value is readable but tamper-evident (HMAC-SHA256)
//   - flash cookies, signed JSON messages that are deleted when read
//
// Signing requires a secret. Any non-empty secret works; it is stretched
// with SHA-256 into the signing key.
//
//	m := cookie.New(
//		cookie.WithSecret(os.Getenv("SECRET")),
//		cookie.WithSecure(true),
//	)
//	_ = m.SetSigned(w, "oauth_state", state, 600)
//	state, err := m.GetSigned(r, "oauth_state")
package cookie
