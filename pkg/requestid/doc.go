// Package requestid assigns a correlation id to every HTTP request.
//
// Middleware reuses a client supplied X-Request-ID when it is at most 128
// characters of [A-Za-z0-9_-] and generates a UUID otherwise. The id is echoed
// in the response header, stored in the request context and picked up by the
// logger through LoggerExtractor.
package requestid
