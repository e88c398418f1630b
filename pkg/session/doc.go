// Package session manages server-side HTTP sessions.
//
// A Manager resolves the session token through a Transport (a signed cookie
// and, optionally, a request header for API clients) and loads the session
// from a Store. Stores are pluggable: MemoryStore and RedisStore ship with
// this package and the record store provides a Postgres one.
//
// Login always issues a fresh token and drops the session presented with the
// request. Sessions live for Config.MaxAge (30 days by default); a background
// loop deletes expired sessions and a worker applies last-activity updates
// off the request path.
//
//	cookies, _ := cookie.New([]string{secret})
//	sessions := session.New(
//	    session.WithStore(store),
//	    session.WithCookieManager(cookies),
//	    session.WithFingerprint(fingerprint.Generate),
//	)
//	defer sessions.Close()
//
//	router.Use(sessions.Middleware)
package session
