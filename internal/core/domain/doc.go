// Package domain defines the core entities of an annotation migration.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - LegacyAnnotation: A record in the AnnoJS schema as fetched from the source
//   - CanonicalAnnotation: The same record in the Catcha (W3C-derived) schema
//   - Corpus: A unique-by-identifier collection of legacy records
//   - MigrationConfig: Everything one run needs, resolved once by the CLI
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
