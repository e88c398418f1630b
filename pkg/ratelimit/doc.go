// Package ratelimit implements fixed window rate limiting for HTTP handlers.
//
// A FixedWindow limiter admits at most Limit requests per key during a window
// that starts with the first request. Counters live in a Store: MemoryStore
// for a single instance or RedisStore when several instances share limits.
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimit.NewFixedWindow(store, 10, time.Minute)
//	if err != nil {
//	    return err
//	}
//	r.With(ratelimit.Middleware(limiter, keyFunc)).Post("/upload", upload)
//
// The middleware sets X-Rate-Limit-Limit, X-Rate-Limit-Remaining and
// X-Rate-Limit-Reset (unix milliseconds) on every limited response, and
// Retry-After when a request is rejected.
package ratelimit
