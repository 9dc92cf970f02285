package entity

import (
	"fmt"
	"sort"
	"time"
)

// Kind is the class tag stored with a meeting record.
type Kind string

const (
	// KindMeeting is an unclassified record, typically loaded from storage.
	KindMeeting Kind = "Meeting"
	// KindFuture marks a meeting scheduled ahead of the clock.
	KindFuture Kind = "FutureMeeting"
	// KindPast marks a meeting that happened. Once stored, it never reverts.
	KindPast Kind = "PastMeeting"
)

// ParseKind converts a stored tag into a Kind.
func ParseKind(tag string) (Kind, error) {
	k := Kind(tag)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown meeting type %q", ErrInvalidArgument, tag)
	}
	return k, nil
}

// Valid reports whether k is one of the known tags.
func (k Kind) Valid() bool {
	switch k {
	case KindMeeting, KindFuture, KindPast:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Meeting is a single tagged record shared by every meeting class. Notes are
// only meaningful when Kind is KindPast.
type Meeting struct {
	ID           int
	Date         time.Time
	Participants []Contact // Ordered by contact id, never empty
	Kind         Kind
	Notes        string
}

// NewMeeting validates the fields and builds a Meeting. Participants are
// deduplicated by id and ordered by id; the date is truncated to whole
// seconds, the precision of the stored calendar.
func NewMeeting(id int, date time.Time, participants []Contact, kind Kind, notes string) (Meeting, error) {
	if id <= 0 {
		return Meeting{}, fmt.Errorf("%w: meeting id must be positive (got %d)", ErrInvalidArgument, id)
	}
	if date.IsZero() {
		return Meeting{}, fmt.Errorf("%w: meeting date", ErrNullArgument)
	}
	if len(participants) == 0 {
		return Meeting{}, fmt.Errorf("%w: meeting %d has no participants", ErrInvalidArgument, id)
	}
	if !kind.Valid() {
		return Meeting{}, fmt.Errorf("%w: unknown meeting type %q", ErrInvalidArgument, kind)
	}
	if kind != KindPast && notes != "" {
		return Meeting{}, fmt.Errorf("%w: only past meetings carry notes", ErrInvalidArgument)
	}

	return Meeting{
		ID:           id,
		Date:         TruncateDate(date),
		Participants: normalizeParticipants(participants),
		Kind:         kind,
		Notes:        notes,
	}, nil
}

// TruncateDate drops sub-second precision and the monotonic clock reading.
func TruncateDate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

func normalizeParticipants(participants []Contact) []Contact {
	seen := make(map[int]bool, len(participants))
	out := make([]Contact, 0, len(participants))
	for _, c := range participants {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Class derives the temporal class of the meeting at now. A stored past
// record stays past; anything else is future while its date is strictly
// after now.
func (m Meeting) Class(now time.Time) Kind {
	if m.Kind == KindPast {
		return KindPast
	}
	if m.Date.After(now) {
		return KindFuture
	}
	return KindPast
}

// IsFuture reports whether the meeting classifies as future at now.
func (m Meeting) IsFuture(now time.Time) bool {
	return m.Class(now) == KindFuture
}

// IsPast reports whether the meeting classifies as past at now.
func (m Meeting) IsPast(now time.Time) bool {
	return m.Class(now) == KindPast
}

// HasParticipant reports whether the contact with the given id attends.
func (m Meeting) HasParticipant(contactID int) bool {
	for _, c := range m.Participants {
		if c.ID == contactID {
			return true
		}
	}
	return false
}

// ParticipantIDs returns the participant ids in ascending order.
func (m Meeting) ParticipantIDs() []int {
	ids := make([]int, len(m.Participants))
	for i, c := range m.Participants {
		ids[i] = c.ID
	}
	return ids
}

// Clone returns a copy that shares no memory with m.
func (m Meeting) Clone() Meeting {
	c := m
	c.Participants = append([]Contact(nil), m.Participants...)
	return c
}
