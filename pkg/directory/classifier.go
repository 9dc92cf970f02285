package directory

import (
	"fmt"
	"sort"
	"time"

	"github.com/entrhq/rolodex/pkg/entity"
)

// resolveParticipants checks a participant set against the known contacts
// and returns the distinct ids in ascending order.
func (s *Store) resolveParticipants(participants []int) ([]int, error) {
	if participants == nil {
		return nil, fmt.Errorf("%w: participants", entity.ErrNullArgument)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: empty participant set", entity.ErrInvalidArgument)
	}

	seen := make(map[int]bool, len(participants))
	ids := make([]int, 0, len(participants))
	for _, id := range participants {
		if !s.ContactExists(id) {
			return nil, fmt.Errorf("%w: unknown contact %d", entity.ErrInvalidArgument, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// AddFutureMeeting schedules a meeting and returns its id. The date must be
// strictly after the current time.
func (s *Store) AddFutureMeeting(participants []int, date time.Time) (int, error) {
	ids, err := s.resolveParticipants(participants)
	if err != nil {
		return 0, err
	}
	if date.IsZero() {
		return 0, fmt.Errorf("%w: date", entity.ErrNullArgument)
	}
	date = entity.TruncateDate(date)
	if !date.After(s.now()) {
		return 0, fmt.Errorf("%w: meeting date %s is not in the future", entity.ErrInvalidArgument, date.Format(time.RFC3339))
	}

	rec := meetingRecord{
		id:           s.nextMeetingID(),
		date:         date,
		participants: ids,
		kind:         entity.KindFuture,
	}
	s.insertMeeting(rec)
	s.dirty = true
	s.logger.Debugf("added future meeting %d with %d participants", rec.id, len(ids))
	return rec.id, nil
}

// AddPastMeeting records a meeting that already took place. The date is not
// checked against the clock, so meetings may be backdated or not.
func (s *Store) AddPastMeeting(participants []int, date time.Time, notes *string) (int, error) {
	if participants == nil {
		return 0, fmt.Errorf("%w: participants", entity.ErrNullArgument)
	}
	if date.IsZero() {
		return 0, fmt.Errorf("%w: date", entity.ErrNullArgument)
	}
	if notes == nil {
		return 0, fmt.Errorf("%w: notes", entity.ErrNullArgument)
	}
	ids, err := s.resolveParticipants(participants)
	if err != nil {
		return 0, err
	}

	rec := meetingRecord{
		id:           s.nextMeetingID(),
		date:         entity.TruncateDate(date),
		participants: ids,
		kind:         entity.KindPast,
		notes:        *notes,
	}
	s.insertMeeting(rec)
	s.dirty = true
	s.logger.Debugf("added past meeting %d with %d participants", rec.id, len(ids))
	return rec.id, nil
}

// GetFutureMeeting returns the meeting with id as a future meeting. It fails
// with entity.ErrNotFound when the meeting does not exist and with
// entity.ErrInvalidArgument when it no longer classifies as future.
func (s *Store) GetFutureMeeting(id int) (entity.FutureMeeting, error) {
	m, err := s.GetMeeting(id)
	if err != nil {
		return entity.FutureMeeting{}, err
	}
	return entity.AsFuture(m, s.now())
}

// GetPastMeeting returns the meeting with id as a past meeting. It fails
// with entity.ErrNotFound when the meeting does not exist and with
// entity.ErrInvalidArgument while it still classifies as future.
func (s *Store) GetPastMeeting(id int) (entity.PastMeeting, error) {
	m, err := s.GetMeeting(id)
	if err != nil {
		return entity.PastMeeting{}, err
	}
	return entity.AsPast(m, s.now())
}

// AddMeetingNotes attaches notes to a meeting whose date has been reached,
// turning it into a past meeting for good. Existing notes are replaced. On
// failure the stored meeting is unchanged.
func (s *Store) AddMeetingNotes(id int, text *string) error {
	if text == nil {
		return fmt.Errorf("%w: notes", entity.ErrNullArgument)
	}
	rec, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: unknown meeting %d", entity.ErrInvalidArgument, id)
	}
	if rec.date.After(s.now()) {
		return fmt.Errorf("%w: meeting %d has not happened yet", entity.ErrInvalidState, id)
	}

	s.meetings[s.meetingIndex[id]] = rec.withNotes(*text)
	s.dirty = true
	s.logger.Debugf("attached notes to meeting %d", id)
	return nil
}
