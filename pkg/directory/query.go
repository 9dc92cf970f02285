package directory

import (
	"fmt"
	"sort"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/rolodex/pkg/entity"
)

// GetContacts returns the known contacts among the given ids, ordered by id,
// each once. Unknown ids are ignored; the call fails with
// entity.ErrInvalidArgument only when none of the ids is known.
func (s *Store) GetContacts(ids ...int) ([]entity.Contact, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no contact ids given", entity.ErrInvalidArgument)
	}

	seen := make(map[int]bool, len(ids))
	out := make([]entity.Contact, 0, len(ids))
	for _, id := range ids {
		if seen[id] || !s.ContactExists(id) {
			continue
		}
		seen[id] = true
		out = append(out, s.contacts[id])
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none of contacts %v exist", entity.ErrInvalidArgument, ids)
	}
	sortContacts(out)
	return out, nil
}

// SearchContacts returns the contacts whose name contains name, ordered by
// id. The match is case-sensitive and an empty name matches everyone.
func (s *Store) SearchContacts(name *string) ([]entity.Contact, error) {
	if name == nil {
		return nil, fmt.Errorf("%w: name", entity.ErrNullArgument)
	}
	return s.filterContacts(func(c entity.Contact) bool {
		return c.NameContains(*name)
	}), nil
}

// MatchContacts returns the contacts whose whole name matches a shell-style
// glob pattern such as "Al*" or "?ob", ordered by id.
func (s *Store) MatchContacts(pattern string) ([]entity.Contact, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", entity.ErrInvalidArgument, pattern, err)
	}
	return s.filterContacts(func(c entity.Contact) bool {
		return g.Match(c.Name)
	}), nil
}

func (s *Store) filterContacts(keep func(entity.Contact) bool) []entity.Contact {
	out := []entity.Contact{}
	for _, c := range s.contacts {
		if keep(c) {
			out = append(out, c)
		}
	}
	sortContacts(out)
	return out
}

// FutureMeetingsWith returns the meetings the contact attends that are
// still in the future, earliest first. Contact id 0 yields an empty list.
func (s *Store) FutureMeetingsWith(contactID int) ([]entity.Meeting, error) {
	if contactID == 0 {
		return []entity.Meeting{}, nil
	}
	if !s.ContactExists(contactID) {
		return nil, fmt.Errorf("%w: unknown contact %d", entity.ErrInvalidArgument, contactID)
	}

	now := s.now()
	return s.selectMeetings(func(m entity.Meeting) bool {
		return m.HasParticipant(contactID) && m.IsFuture(now)
	}), nil
}

// FutureMeetingsAfter returns every meeting dated strictly after date,
// earliest first. A zero date yields an empty list.
func (s *Store) FutureMeetingsAfter(date time.Time) []entity.Meeting {
	if date.IsZero() {
		return []entity.Meeting{}
	}
	return s.selectMeetings(func(m entity.Meeting) bool {
		return m.Date.After(date)
	})
}

// PastMeetingsWith returns the past meetings the contact attended, earliest
// first. Contact id 0 yields an empty list.
func (s *Store) PastMeetingsWith(contactID int) ([]entity.PastMeeting, error) {
	if contactID == 0 {
		return []entity.PastMeeting{}, nil
	}
	if !s.ContactExists(contactID) {
		return nil, fmt.Errorf("%w: unknown contact %d", entity.ErrInvalidArgument, contactID)
	}

	now := s.now()
	selected := s.selectMeetings(func(m entity.Meeting) bool {
		return m.HasParticipant(contactID) && m.IsPast(now)
	})

	out := make([]entity.PastMeeting, 0, len(selected))
	for _, m := range selected {
		v, err := entity.AsPast(m, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// selectMeetings returns the meetings accepted by keep, each id once,
// sorted by date. Meetings on the same date keep insertion order.
func (s *Store) selectMeetings(keep func(entity.Meeting) bool) []entity.Meeting {
	seen := make(map[int]bool)
	out := []entity.Meeting{}
	for _, rec := range s.meetings {
		if seen[rec.id] {
			continue
		}
		m := s.toMeeting(rec)
		if !keep(m) {
			continue
		}
		seen[rec.id] = true
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
