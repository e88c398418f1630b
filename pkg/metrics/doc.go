// Package metrics exposes Prometheus collectors for HTTP traffic, uploads,
// security rejections and storage syncs on a private registry.
package metrics
