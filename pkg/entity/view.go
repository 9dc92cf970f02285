package entity

import (
	"fmt"
	"time"
)

// FutureMeeting is a read-only view of a meeting that classifies as future.
type FutureMeeting struct {
	Meeting
}

// PastMeeting is a read-only view of a meeting that classifies as past.
// Notes are empty unless the underlying record carries some.
type PastMeeting struct {
	Meeting
}

// AsFuture builds a future view of m, failing with ErrInvalidArgument when m
// does not classify as future at now.
func AsFuture(m Meeting, now time.Time) (FutureMeeting, error) {
	if !m.IsFuture(now) {
		return FutureMeeting{}, fmt.Errorf("%w: meeting %d is not in the future", ErrInvalidArgument, m.ID)
	}
	v := m.Clone()
	v.Kind = KindFuture
	v.Notes = ""
	return FutureMeeting{Meeting: v}, nil
}

// AsPast builds a past view of m, failing with ErrInvalidArgument when m
// still classifies as future at now.
func AsPast(m Meeting, now time.Time) (PastMeeting, error) {
	if !m.IsPast(now) {
		return PastMeeting{}, fmt.Errorf("%w: meeting %d is still in the future", ErrInvalidArgument, m.ID)
	}
	v := m.Clone()
	if v.Kind != KindPast {
		v.Notes = ""
	}
	v.Kind = KindPast
	return PastMeeting{Meeting: v}, nil
}
