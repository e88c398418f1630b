// Package auth implements username and password accounts with two roles,
// admin and guest.
//
// Service hashes passwords with bcrypt and never reveals whether a username
// exists: every login failure is ErrInvalidCredentials. Input problems are
// returned as FieldErrors keyed by field name.
//
// Service.Middleware resolves the user of the current session, and
// RequireAuth, RequireAdmin and RequireUser guard route groups:
//
//	r.Use(sessions.Middleware, accounts.Middleware)
//	r.With(auth.RequireAdmin(respond)).Post("/api/auth/change-password", h)
package auth
