// Package normalisers provides content extractors for the document formats
// a source can download. Each extractor converts raw bytes of one family of
// MIME types into plain text ready for chunking.
//
// Extractors are registered with the Registry at startup.
package normalisers
