// Package httpapi exposes the knowledge base over HTTP: folder
// registration, reindexing, status, manual triggers, similarity search,
// health and Prometheus metrics.
package httpapi
