package entity

import (
	"fmt"
	"strings"
)

// Contact is a named person that can take part in meetings.
type Contact struct {
	ID    int    // Sequential identifier, starting at 1
	Name  string // Display name, never empty
	Notes string // Freeform notes, empty when none were given
}

// NewContact validates the fields and builds a Contact. A nil notes pointer
// is treated as empty notes.
func NewContact(id int, name string, notes *string) (Contact, error) {
	if id <= 0 {
		return Contact{}, fmt.Errorf("%w: contact id must be positive (got %d)", ErrInvalidArgument, id)
	}
	if err := ValidateName(name); err != nil {
		return Contact{}, err
	}

	c := Contact{ID: id, Name: name}
	if notes != nil {
		c.Notes = *notes
	}
	return c, nil
}

// ValidateName checks that a contact name was supplied.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: contact name", ErrNullArgument)
	}
	return nil
}

// NameContains reports whether the contact name contains substr. The match
// is case-sensitive.
func (c Contact) NameContains(substr string) bool {
	return strings.Contains(c.Name, substr)
}
