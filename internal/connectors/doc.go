// Package connectors builds the DocumentSource the pipeline reads from.
// Each source knows how to list, diff and download files from one kind of
// folder-backed store (Google Drive, local filesystem).
//
// Sources are selected by kind at startup with NewSource.
package connectors
