// Package domain defines the core business entities for the knowledge-base
// ingestion pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChunkRecord: A bounded window of a source document, embedded and searchable
//   - FileDescriptor: Metadata for one file in a watched remote folder
//   - ChangeSet: The classified delta reported since a continuation token
//   - WatchState: The (folder, continuation token) pair driving one poller
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
