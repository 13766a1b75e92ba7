// Package mcp provides an MCP (Model Context Protocol) server adapter for kbsync.
// It lets AI assistants search the knowledge base and inspect ingestion state.
package mcp

import "errors"

// ErrMissingKnowledgeBase is returned when the knowledge base is not provided.
var ErrMissingKnowledgeBase = errors.New("mcp: knowledge base is required")
