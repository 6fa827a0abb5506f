// Package services implements the driving port interfaces.
// Services contain the migration logic and orchestrate
// calls to driven ports (adapters).
//
// The Migrator ties the pieces together: the Accumulator pulls and
// deduplicates pages, the normaliser port converts them, the Sorter puts
// parents ahead of replies and the Comparator checks a migrated corpus
// against its source. Every step leaves JSON artifacts behind through the
// ArtifactStore port.
//
// Services are pure Go with no CGO.
package services
