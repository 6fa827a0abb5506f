// Package normalisers converts source records into canonical annotations.
// Each subpackage implements driven.Normaliser for one source schema.
package normalisers
