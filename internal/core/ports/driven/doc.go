// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: Lists, diffs and downloads files in a remote folder
//   - ChunkRepository: Idempotent chunk persistence and similarity search
//   - EmbeddingService: Text to vector (a hash fallback is always available)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - WatchStateStore: Persists the folder and continuation token across restarts
//   - CycleStore: Records poll cycle outcomes for status reporting
//   - ContentExtractor: Converts binary formats (PDF, DOCX, XLSX) to text
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
