// Package media holds the domain vocabulary shared by every DittoPhotos
// component: content identifiers, output formats and error kinds.
package media

import (
	"fmt"

	"github.com/google/uuid"
)

// ContentID is the opaque identifier assigned to an item at ingest time.
//
// It is a canonical lowercase UUIDv4 string. It doubles as the filename stem
// of the stored item, so every store boundary validates it with
// ParseContentID before turning it into a path or object key.
type ContentID string

// NewContentID returns a fresh random identifier.
func NewContentID() ContentID {
	return ContentID(uuid.NewString())
}

// ParseContentID validates s and returns it as a ContentID.
//
// Only the canonical 36-character form is accepted: braces, URN prefixes and
// uppercase hex are rejected so that one item can never be reachable under
// two different names.
func ParseContentID(s string) (ContentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidContentID)
	}
	if u.String() != s {
		return "", fmt.Errorf("%q is not in canonical form: %w", s, ErrInvalidContentID)
	}
	return ContentID(s), nil
}

// Validate reports whether id is a well-formed identifier.
func (id ContentID) Validate() error {
	_, err := ParseContentID(string(id))
	return err
}

func (id ContentID) String() string {
	return string(id)
}
