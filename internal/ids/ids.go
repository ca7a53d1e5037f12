// Package ids generates the unique string identifiers assigned to
// categories and links.
package ids

import "github.com/google/uuid"

// Generator returns a fresh unique ID per call.
type Generator func() string

// New returns a UUIDv4-backed generator.
func New() Generator {
	return uuid.NewString
}
