// Package mongo implements driven.ChunkRepository on MongoDB.
//
// Chunks live in one collection keyed by the unique (doc_id, chunk_id)
// index, with a secondary (folder_id, doc_id) index for folder-wide
// deletes. Documents carry type "kb_chunk" so the collection can be shared.
package mongo
