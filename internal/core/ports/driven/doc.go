// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - SearchClient: Paginated reads from the annotation search service
//   - TokenProvider: Auth tokens for the search service
//   - Normaliser: Legacy to canonical conversion
//   - RepairPipeline: Data-defect repairs applied before conversion
//   - AnnotationStore: Destination import, listing and deletion
//   - ArtifactStore: JSON artifacts for every run
//   - CheckpointStore: Resumable pull progress
//   - ConfigStore: Persisted settings
//   - MetricsRecorder: Run counters
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
