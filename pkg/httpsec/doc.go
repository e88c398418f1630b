// Package httpsec provides the security middleware of the HTTP layer:
// response security headers, logging of rejected requests and panic
// recovery.
//
//	r := chi.NewRouter()
//	r.Use(httpsec.Recoverer(log))
//	r.Use(httpsec.Headers())
//	r.Use(httpsec.SecurityEvents(log, m))
package httpsec
