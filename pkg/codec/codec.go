package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/entrhq/rolodex/pkg/entity"
)

// Codec converts between entities and records. Dates are broken down in the
// codec's calendar location.
type Codec struct {
	loc *time.Location
}

// New creates a Codec for the given calendar location. A nil location uses
// time.Local.
func New(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// EncodeContact converts a contact to its record.
func (c *Codec) EncodeContact(ct entity.Contact) ContactRecord {
	return ContactRecord{ID: ct.ID, Name: ct.Name, Notes: ct.Notes}
}

// DecodeContact converts a record to a contact.
func (c *Codec) DecodeContact(r ContactRecord) (entity.Contact, error) {
	notes := r.Notes
	ct, err := entity.NewContact(r.ID, r.Name, &notes)
	if err != nil {
		return entity.Contact{}, fmt.Errorf("codec: decode contact: %w", err)
	}
	return ct, nil
}

// EncodeDate breaks t down into calendar fields.
func (c *Codec) EncodeDate(t time.Time) DateRecord {
	t = t.In(c.loc)
	year, month, day := t.Date()
	hour, minute, second := t.Clock()
	zeroBasedMonth := int(month) - 1
	return DateRecord{
		Year:   &year,
		Month:  &zeroBasedMonth,
		Day:    &day,
		Hour:   &hour,
		Minute: &minute,
		Second: &second,
	}
}

// DecodeDate rebuilds a time from calendar fields. Out-of-range values are
// normalised the way time.Date does.
func (c *Codec) DecodeDate(r *DateRecord) (time.Time, error) {
	if r == nil {
		return time.Time{}, fmt.Errorf("codec: decode date: %w: date record missing", entity.ErrInvalidArgument)
	}
	fields := []struct {
		name  string
		value *int
	}{
		{"year", r.Year},
		{"month", r.Month},
		{"day", r.Day},
		{"hour", r.Hour},
		{"minute", r.Minute},
		{"second", r.Second},
	}
	for _, f := range fields {
		if f.value == nil {
			return time.Time{}, fmt.Errorf("codec: decode date: %w: field %q missing", entity.ErrInvalidArgument, f.name)
		}
	}
	return time.Date(*r.Year, time.Month(*r.Month+1), *r.Day, *r.Hour, *r.Minute, *r.Second, 0, c.loc), nil
}

// EncodeMeeting converts a meeting to its record.
func (c *Codec) EncodeMeeting(m entity.Meeting) MeetingRecord {
	date := c.EncodeDate(m.Date)
	r := MeetingRecord{
		Type:     m.Kind.String(),
		ID:       m.ID,
		Date:     &date,
		Contacts: make([]ContactRecord, 0, len(m.Participants)),
	}
	for _, p := range m.Participants {
		r.Contacts = append(r.Contacts, c.EncodeContact(p))
	}
	if m.Kind == entity.KindPast {
		notes := m.Notes
		r.Notes = &notes
	}
	return r
}

// DecodeMeeting converts a record to a meeting. An unrecognised type tag or
// an incomplete date fails with entity.ErrInvalidArgument.
func (c *Codec) DecodeMeeting(r MeetingRecord) (entity.Meeting, error) {
	kind, err := entity.ParseKind(r.Type)
	if err != nil {
		return entity.Meeting{}, fmt.Errorf("codec: decode meeting %d: %w", r.ID, err)
	}
	date, err := c.DecodeDate(r.Date)
	if err != nil {
		return entity.Meeting{}, fmt.Errorf("codec: decode meeting %d: %w", r.ID, err)
	}

	participants := make([]entity.Contact, 0, len(r.Contacts))
	for _, cr := range r.Contacts {
		ct, err := c.DecodeContact(cr)
		if err != nil {
			return entity.Meeting{}, fmt.Errorf("codec: decode meeting %d: %w", r.ID, err)
		}
		participants = append(participants, ct)
	}

	notes := ""
	if kind == entity.KindPast && r.Notes != nil {
		notes = *r.Notes
	}

	m, err := entity.NewMeeting(r.ID, date, participants, kind, notes)
	if err != nil {
		return entity.Meeting{}, fmt.Errorf("codec: decode meeting %d: %w", r.ID, err)
	}
	return m, nil
}

// Marshal renders a document as a single JSON object followed by a newline.
// Output depends only on the document, so equal documents produce equal bytes.
func Marshal(doc *Document) ([]byte, error) {
	out := Document{
		Contacts: doc.Contacts,
		Meetings: append([]MeetingRecord{}, doc.Meetings...),
	}
	if out.Contacts == nil {
		out.Contacts = []ContactRecord{}
	}
	for i := range out.Meetings {
		if out.Meetings[i].Contacts == nil {
			out.Meetings[i].Contacts = []ContactRecord{}
		}
	}

	b, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("codec: encode document: %w", err)
	}
	return append(b, '\n'), nil
}

// Unmarshal reads a sequence of one or more JSON objects and merges their
// contact and meeting arrays, in input order, into one document. Keys other
// than "contact" and "meeting" are collected in Document.Unknown. Empty input
// yields an empty document.
func Unmarshal(data []byte) (*Document, error) {
	doc := &Document{}
	dec := json.NewDecoder(bytes.NewReader(data))

	for {
		var obj map[string]json.RawMessage
		err := dec.Decode(&obj)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("codec: decode document: %w", err)
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			raw := obj[key]
			switch key {
			case KeyContact:
				var contacts []ContactRecord
				if err := json.Unmarshal(raw, &contacts); err != nil {
					return nil, fmt.Errorf("codec: decode %q array: %w", key, err)
				}
				doc.Contacts = append(doc.Contacts, contacts...)
			case KeyMeeting:
				var meetings []MeetingRecord
				if err := json.Unmarshal(raw, &meetings); err != nil {
					return nil, fmt.Errorf("codec: decode %q array: %w", key, err)
				}
				doc.Meetings = append(doc.Meetings, meetings...)
			default:
				doc.Unknown = append(doc.Unknown, key)
			}
		}
	}

	return doc, nil
}
