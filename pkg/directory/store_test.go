package directory

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/rolodex/pkg/config"
	"github.com/entrhq/rolodex/pkg/entity"
	"github.com/entrhq/rolodex/pkg/logging"
	"github.com/entrhq/rolodex/pkg/storage"
)

var baseTime = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// memGateway keeps the last saved snapshot in memory.
type memGateway struct {
	snap    *storage.Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (g *memGateway) Load() (*storage.Snapshot, error) {
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	if g.snap == nil {
		return &storage.Snapshot{}, nil
	}
	return g.snap, nil
}

func (g *memGateway) Save(snap *storage.Snapshot) error {
	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}
	g.snap = snap
	return nil
}

func newTestStore(t *testing.T) (*Store, *testClock, *memGateway) {
	t.Helper()
	clock := &testClock{now: baseTime}
	gw := &memGateway{}
	return Open(gw, WithClock(clock.Now)), clock, gw
}

func strPtr(s string) *string { return &s }

func TestOpenEmpty(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Equal(t, 0, s.ContactCount())
	assert.Equal(t, 0, s.MeetingCount())
	assert.Empty(t, s.Contacts())
	assert.Empty(t, s.Meetings())
}

func TestAddContact(t *testing.T) {
	s, _, _ := newTestStore(t)

	id, err := s.AddContact("Alice", strPtr("vip"))
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	id, err = s.AddContact("Bob", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	_, err = s.AddContact("", strPtr("x"))
	assert.True(t, errors.Is(err, entity.ErrNullArgument))

	contacts := s.Contacts()
	require.Len(t, contacts, 2)
	assert.Equal(t, entity.Contact{ID: 1, Name: "Alice", Notes: "vip"}, contacts[0])
	assert.Equal(t, entity.Contact{ID: 2, Name: "Bob", Notes: ""}, contacts[1])

	assert.True(t, s.ContactExists(1))
	assert.False(t, s.ContactExists(0))
	assert.False(t, s.ContactExists(3))
}

func TestUpdateContactNotes(t *testing.T) {
	s, _, _ := newTestStore(t)
	alice, _ := s.AddContact("Alice", nil)
	meetingID, err := s.AddPastMeeting([]int{alice}, baseTime.Add(-time.Hour), strPtr(""))
	require.NoError(t, err)

	require.NoError(t, s.UpdateContactNotes(alice, "prefers mornings"))

	got, err := s.GetContacts(alice)
	require.NoError(t, err)
	assert.Equal(t, "prefers mornings", got[0].Notes)

	m, err := s.GetMeeting(meetingID)
	require.NoError(t, err)
	assert.Equal(t, "prefers mornings", m.Participants[0].Notes)

	err = s.UpdateContactNotes(42, "x")
	assert.True(t, errors.Is(err, entity.ErrInvalidArgument))
}

func TestMeetingIDsAreSharedAndIncreasing(t *testing.T) {
	s, _, _ := newTestStore(t)
	alice, _ := s.AddContact("Alice", nil)

	var ids []int
	for i := 0; i < 3; i++ {
		id, err := s.AddFutureMeeting([]int{alice}, baseTime.Add(time.Duration(i+1)*time.Hour))
		require.NoError(t, err)
		ids = append(ids, id)

		id, err = s.AddPastMeeting([]int{alice}, baseTime.Add(-time.Duration(i+1)*time.Hour), strPtr("n"))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids)
	assert.Equal(t, 6, s.MeetingCount())
}

func TestGetMeetingNotFound(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.GetMeeting(1)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
	_, err = s.GetFutureMeeting(1)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
	_, err = s.GetPastMeeting(0)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
	assert.False(t, s.MeetingExists(0))
}

func TestOpenRestoresSnapshot(t *testing.T) {
	alice := entity.Contact{ID: 3, Name: "Alice"}
	ghost := entity.Contact{ID: 9, Name: "Ghost", Notes: "only in a meeting"}
	held, err := entity.NewMeeting(5, baseTime.Add(-time.Hour), []entity.Contact{alice, ghost}, entity.KindPast, "done")
	require.NoError(t, err)
	dup, err := entity.NewMeeting(5, baseTime.Add(time.Hour), []entity.Contact{alice}, entity.KindFuture, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	gw := &memGateway{snap: &storage.Snapshot{
		Contacts: []entity.Contact{alice, {ID: 3, Name: "Duplicate"}},
		Meetings: []entity.Meeting{held, dup},
	}}
	s := Open(gw, WithClock(func() time.Time { return baseTime }),
		WithLogger(logging.NewWriterLogger("directory", &buf)))

	assert.Equal(t, 2, s.ContactCount())
	assert.Equal(t, 1, s.MeetingCount())

	contacts, err := s.GetContacts(3, 9)
	require.NoError(t, err)
	assert.Equal(t, "Alice", contacts[0].Name)
	assert.Equal(t, ghost, contacts[1])

	m, err := s.GetPastMeeting(5)
	require.NoError(t, err)
	assert.Equal(t, "done", m.Notes)

	id, err := s.AddContact("Carol", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, id)

	id, err = s.AddFutureMeeting([]int{3}, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6, id)

	logged := buf.String()
	assert.Contains(t, logged, "skipping duplicate contact id 3")
	assert.Contains(t, logged, "skipping duplicate meeting id 5")
	assert.Contains(t, logged, "unlisted contact 9")
}

func TestOpenLoadFailureStartsEmpty(t *testing.T) {
	var buf bytes.Buffer
	gw := &memGateway{loadErr: errors.New("disk on fire")}
	s := Open(gw, WithLogger(logging.NewWriterLogger("directory", &buf)))

	assert.Equal(t, 0, s.ContactCount())
	assert.Contains(t, buf.String(), "disk on fire")
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestFlushReturnsSaveError(t *testing.T) {
	s, _, gw := newTestStore(t)
	gw.saveErr = errors.New("read-only filesystem")

	err := s.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only filesystem")
}

func TestCloseFlushesOnce(t *testing.T) {
	s, _, gw := newTestStore(t)
	_, err := s.AddContact("Alice", nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, gw.saves)
	require.Len(t, gw.snap.Contacts, 1)

	gw2 := &memGateway{saveErr: errors.New("boom")}
	s2 := Open(gw2)
	_, err = s2.AddContact("Bob", nil)
	require.NoError(t, err)
	first := s2.Close()
	require.Error(t, first)
	assert.Equal(t, first, s2.Close())
	assert.Equal(t, 1, gw2.saves)
}

func TestModifiedTracksChanges(t *testing.T) {
	s, clock, gw := newTestStore(t)
	assert.False(t, s.Modified())

	alice, err := s.AddContact("Alice", nil)
	require.NoError(t, err)
	assert.True(t, s.Modified())

	require.NoError(t, s.Flush())
	assert.False(t, s.Modified())

	id, err := s.AddFutureMeeting([]int{alice}, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Flush())

	// Failed operations leave the store unmodified.
	err = s.AddMeetingNotes(id, strPtr("early"))
	require.True(t, errors.Is(err, entity.ErrInvalidState))
	assert.False(t, s.Modified())

	clock.Advance(2 * time.Hour)
	require.NoError(t, s.AddMeetingNotes(id, strPtr("recap")))
	assert.True(t, s.Modified())

	require.NoError(t, s.Close())
	assert.Equal(t, 3, gw.saves)
}

func TestCloseWithoutChangesDoesNotSave(t *testing.T) {
	s, _, gw := newTestStore(t)
	_ = s.Contacts()

	require.NoError(t, s.Close())
	assert.Equal(t, 0, gw.saves)
}

func TestUnreadableFileSurvivesReadOnlyUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.txt")
	corrupt := []byte("{\"contact\": [{\"id\": 1, \"name\": ")
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))

	var buf bytes.Buffer
	s := OpenFile(path, WithLogger(logging.NewWriterLogger("directory", &buf)))
	assert.Empty(t, s.Contacts())
	_, err := s.SearchContacts(strPtr("A"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, after)
	assert.Contains(t, buf.String(), "will be replaced")
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.txt")
	clock := func() time.Time { return baseTime }

	s := OpenFile(path, WithClock(clock), WithLocation(time.UTC))
	alice, err := s.AddContact("Alice", strPtr("vip"))
	require.NoError(t, err)
	bob, err := s.AddContact("Bob", nil)
	require.NoError(t, err)

	_, err = s.AddFutureMeeting([]int{alice, bob}, baseTime.Add(48*time.Hour+500*time.Millisecond))
	require.NoError(t, err)
	_, err = s.AddPastMeeting([]int{bob}, baseTime.Add(-24*time.Hour), strPtr("discussed budget"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	reopened := OpenFile(path, WithClock(clock), WithLocation(time.UTC))
	assert.Equal(t, s.Contacts(), reopened.Contacts())
	assert.Equal(t, s.Meetings(), reopened.Meetings())

	require.NoError(t, reopened.Flush())
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOpenConfig(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { logging.SetLogDirectory("") })

	cfg := config.DefaultConfig()
	cfg.DataFile = filepath.Join(dir, "data", "contacts.txt")
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.Location = "UTC"
	cfg.FileMode = "0640"

	s, err := OpenConfig(cfg, WithClock(func() time.Time { return baseTime }))
	require.NoError(t, err)
	_, err = s.AddContact("Alice", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	info, err := os.Stat(cfg.DataFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(cfg.LogDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	cfg.LogLevel = "loud"
	_, err = OpenConfig(cfg)
	assert.Error(t, err)
}
