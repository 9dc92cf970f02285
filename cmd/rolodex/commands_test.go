package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/rolodex/pkg/directory"
	"github.com/entrhq/rolodex/pkg/entity"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestCommands(t *testing.T) (*commands, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.txt")
	store := directory.OpenFile(path,
		directory.WithClock(func() time.Time { return testNow }),
		directory.WithLocation(time.UTC))
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	return newCommands(store, &out, time.UTC), &out
}

func TestDispatchContacts(t *testing.T) {
	c, out := newTestCommands(t)

	require.NoError(t, c.Dispatch([]string{"add-contact", "Alice", "vip"}))
	require.NoError(t, c.Dispatch([]string{"add-contact", "Bob"}))
	assert.Contains(t, out.String(), "added contact 2")

	out.Reset()
	require.NoError(t, c.Dispatch([]string{"contacts"}))
	assert.Contains(t, out.String(), "Alice")
	assert.Contains(t, out.String(), "vip")
	assert.Contains(t, out.String(), "Bob")

	out.Reset()
	require.NoError(t, c.Dispatch([]string{"match", "B*"}))
	assert.NotContains(t, out.String(), "Alice")
	assert.Contains(t, out.String(), "Bob")

	require.NoError(t, c.Dispatch([]string{"contact-notes", "2", "likes tea"}))
	out.Reset()
	require.NoError(t, c.Dispatch([]string{"search", "Bo"}))
	assert.Contains(t, out.String(), "likes tea")

	err := c.Dispatch([]string{"contacts", "7"})
	assert.True(t, errors.Is(err, entity.ErrInvalidArgument))
}

func TestDispatchMeetings(t *testing.T) {
	c, out := newTestCommands(t)
	require.NoError(t, c.Dispatch([]string{"add-contact", "Alice"}))

	require.NoError(t, c.Dispatch([]string{"schedule", "2024-06-10T14:30", "1"}))
	assert.Contains(t, out.String(), "scheduled meeting 1")

	require.NoError(t, c.Dispatch([]string{"record", "2024-05-01", "kickoff", "1"}))
	assert.Contains(t, out.String(), "recorded meeting 2")

	out.Reset()
	require.NoError(t, c.Dispatch([]string{"future", "1"}))
	assert.Contains(t, out.String(), "2024-06-10 14:30")

	out.Reset()
	require.NoError(t, c.Dispatch([]string{"past", "1"}))
	assert.Contains(t, out.String(), "kickoff")

	out.Reset()
	require.NoError(t, c.Dispatch([]string{"after", "2024-01-01"}))
	assert.Contains(t, out.String(), "2024-05-01 00:00")
	assert.Contains(t, out.String(), "2024-06-10 14:30")

	err := c.Dispatch([]string{"notes", "1", "too early"})
	assert.True(t, errors.Is(err, entity.ErrInvalidState))

	out.Reset()
	require.NoError(t, c.Dispatch([]string{"meeting", "2"}))
	assert.Contains(t, out.String(), "PastMeeting")

	err = c.Dispatch([]string{"schedule", "2020-01-01", "1"})
	assert.True(t, errors.Is(err, entity.ErrInvalidArgument))
}

func TestDispatchErrors(t *testing.T) {
	c, _ := newTestCommands(t)

	assert.Error(t, c.Dispatch(nil))
	assert.ErrorContains(t, c.Dispatch([]string{"frobnicate"}), "unknown command")
	assert.ErrorContains(t, c.Dispatch([]string{"schedule", "2030-01-01"}), "usage: schedule")
	assert.True(t, errors.Is(c.Dispatch([]string{"meeting", "abc"}), entity.ErrInvalidArgument))
	assert.True(t, errors.Is(c.Dispatch([]string{"after", "next tuesday"}), entity.ErrInvalidArgument))
	assert.True(t, errors.Is(c.Dispatch([]string{"meeting", "5"}), entity.ErrNotFound))
}

func TestUsageListsEveryCommand(t *testing.T) {
	usage := usageText()
	for _, cmd := range commandTable {
		assert.Contains(t, usage, cmd.name)
	}
}
