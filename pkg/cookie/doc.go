// Package cookie writes and reads HMAC-SHA256 signed HTTP cookies.
//
// A Manager is created with one or more secrets of at least 32 bytes. The first
// secret signs new cookies; all of them are tried when verifying, so secrets
// can be rotated by prepending a new one.
//
//	man, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")}, cookie.WithSecure(true))
//	if err != nil {
//		return err
//	}
//	man.SetSigned(w, "sid", token, cookie.WithMaxAge(30*24*3600))
//	token, err := man.GetSigned(r, "sid")
//
// A cookie is encoded as base64url(value) + "." + base64url(hmac). Tampered or
// malformed values return ErrInvalidSignature or ErrInvalidFormat; a missing
// cookie returns ErrCookieNotFound.
package cookie
