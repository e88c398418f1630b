// Package clientip resolves the address of the client behind an HTTP request.
//
// Proxy headers are only honoured when listed in the resolver configuration;
// otherwise the TCP peer address is used. The resolved IP feeds upload rate
// limiting and security event logs.
package clientip
