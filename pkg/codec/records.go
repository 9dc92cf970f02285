// Package codec maps contacts and meetings to the flat JSON records kept in
// the directory file, and back. Every field round-trips exactly.
package codec

// Top-level keys of a stored document.
const (
	KeyContact = "contact"
	KeyMeeting = "meeting"
)

// ContactRecord is the stored form of a contact.
type ContactRecord struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// DateRecord is the stored form of a meeting date. Month is zero-based
// (January = 0). Fields are pointers so that a missing field can be told
// apart from a zero value.
type DateRecord struct {
	Year   *int `json:"year"`
	Month  *int `json:"month"`
	Day    *int `json:"day"`
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
	Second *int `json:"second"`
}

// MeetingRecord is the stored form of a meeting. Notes is only present for
// the PastMeeting type.
type MeetingRecord struct {
	Type     string          `json:"type"`
	ID       int             `json:"id"`
	Date     *DateRecord     `json:"date"`
	Contacts []ContactRecord `json:"contacts"`
	Notes    *string         `json:"notes,omitempty"`
}

// Document is the content of one stored JSON object. Unknown holds top-level
// keys that were present in the input but not understood; it is never
// written back.
type Document struct {
	Contacts []ContactRecord `json:"contact"`
	Meetings []MeetingRecord `json:"meeting"`
	Unknown  []string        `json:"-"`
}
