// Package directory is the in-process contact and meeting store. It owns the
// canonical collections, allocates ids, classifies meetings against a clock
// and persists everything through a Gateway.
//
// A Store is not safe for concurrent use: it has a single owner, which is
// also responsible for calling Close before the process exits so that the
// final state is saved.
package directory

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/entrhq/rolodex/pkg/codec"
	"github.com/entrhq/rolodex/pkg/config"
	"github.com/entrhq/rolodex/pkg/entity"
	"github.com/entrhq/rolodex/pkg/logging"
	"github.com/entrhq/rolodex/pkg/storage"
)

// Gateway loads and saves the full content of a store.
type Gateway interface {
	Load() (*storage.Snapshot, error)
	Save(snap *storage.Snapshot) error
}

// meetingRecord is the stored form of a meeting. Participants are contact
// ids so that contact notes stay current in every meeting.
type meetingRecord struct {
	id           int
	date         time.Time
	participants []int
	kind         entity.Kind
	notes        string
}

// withNotes returns the past-flagged copy of r carrying notes. Participants
// are shared; the store replaces r with the copy, never keeps both.
func (r meetingRecord) withNotes(notes string) meetingRecord {
	r.kind = entity.KindPast
	r.notes = notes
	return r
}

// Store holds contacts and meetings.
type Store struct {
	gateway Gateway
	now     func() time.Time
	logger  *logging.Logger

	contacts      map[int]entity.Contact
	lastContactID int

	meetings      []meetingRecord // insertion order
	meetingIndex  map[int]int     // meeting id -> position in meetings
	lastMeetingID int

	dirty      bool // changed since load or the last successful flush
	ownsLogger bool
	closed     bool
	closeErr   error
}

type options struct {
	now      func() time.Time
	logger   *logging.Logger
	location *time.Location
	fileMode os.FileMode
}

// Option configures a Store.
type Option func(*options)

// WithClock sets the function used as "now" when classifying meetings.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLocation sets the calendar location of stored dates. Only used by
// OpenFile.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithFileMode sets the permission of the data file. Only used by OpenFile.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) { o.fileMode = mode }
}

func collectOptions(opts []Option) *options {
	o := &options{
		now:      time.Now,
		fileMode: storage.DefaultFileMode,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return o
}

// Open creates a store and loads its content through gw. A load failure is
// logged and leaves the store empty.
func Open(gw Gateway, opts ...Option) *Store {
	return open(gw, collectOptions(opts))
}

// OpenFile opens a store backed by the JSON file at path.
func OpenFile(path string, opts ...Option) *Store {
	o := collectOptions(opts)
	gw := storage.NewFileGateway(path,
		storage.WithCodec(codec.New(o.location)),
		storage.WithFileMode(o.fileMode),
		storage.WithLogger(o.logger.WithComponent("storage")),
	)
	return open(gw, o)
}

// OpenConfig opens the store described by cfg, logging to a file in the
// configured log directory. Extra options are applied after the ones derived
// from cfg.
func OpenConfig(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, _ := cfg.Loc()
	mode, _ := cfg.Mode()
	level, _ := cfg.Level()

	if cfg.LogDir != "" {
		logging.SetLogDirectory(cfg.LogDir)
	}
	// On error NewLogger still returns a usable stderr logger
	logger, _ := logging.NewLogger("directory")
	logger.SetLevel(level)

	base := []Option{WithLogger(logger), WithLocation(loc), WithFileMode(mode)}
	s := OpenFile(cfg.DataFile, append(base, opts...)...)
	s.ownsLogger = s.logger == logger
	if !s.ownsLogger {
		_ = logger.Close()
	}
	return s, nil
}

func open(gw Gateway, o *options) *Store {
	s := &Store{
		gateway:      gw,
		now:          o.now,
		logger:       o.logger,
		contacts:     make(map[int]entity.Contact),
		meetingIndex: make(map[int]int),
	}

	snap, err := gw.Load()
	if err != nil {
		s.logger.Errorf("load failed, starting with an empty directory: %v", err)
		s.logger.Warnf("the stored data will be replaced if this directory is changed and saved")
		return s
	}
	s.restore(snap)
	s.logger.Infof("opened directory with %d contacts and %d meetings", len(s.contacts), len(s.meetings))
	return s
}

// restore inserts loaded entities. Ids are kept as loaded, the first
// occurrence of an id wins, and the id counters move past the largest id
// seen. Meeting participants unknown to the contact list are added as
// contacts from the copy embedded in the meeting.
func (s *Store) restore(snap *storage.Snapshot) {
	for _, c := range snap.Contacts {
		if s.ContactExists(c.ID) {
			s.logger.Warnf("skipping duplicate contact id %d", c.ID)
			continue
		}
		s.insertContact(c)
	}

	for _, m := range snap.Meetings {
		if s.MeetingExists(m.ID) {
			s.logger.Warnf("skipping duplicate meeting id %d", m.ID)
			continue
		}
		for _, p := range m.Participants {
			if !s.ContactExists(p.ID) {
				s.logger.Warnf("meeting %d references unlisted contact %d, adding it", m.ID, p.ID)
				s.insertContact(p)
			}
		}
		s.insertMeeting(meetingRecord{
			id:           m.ID,
			date:         m.Date,
			participants: m.ParticipantIDs(),
			kind:         m.Kind,
			notes:        m.Notes,
		})
	}
}

func (s *Store) insertContact(c entity.Contact) {
	s.contacts[c.ID] = c
	if c.ID > s.lastContactID {
		s.lastContactID = c.ID
	}
}

func (s *Store) insertMeeting(rec meetingRecord) {
	s.meetingIndex[rec.id] = len(s.meetings)
	s.meetings = append(s.meetings, rec)
	if rec.id > s.lastMeetingID {
		s.lastMeetingID = rec.id
	}
}

// nextMeetingID returns the id the next meeting receives. The sequence is
// shared by every meeting kind.
func (s *Store) nextMeetingID() int {
	return s.lastMeetingID + 1
}

// AddContact adds a contact and returns its id. An empty name fails with
// entity.ErrNullArgument; nil notes are stored as empty notes.
func (s *Store) AddContact(name string, notes *string) (int, error) {
	c, err := entity.NewContact(s.lastContactID+1, name, notes)
	if err != nil {
		return 0, err
	}
	s.insertContact(c)
	s.dirty = true
	return c.ID, nil
}

// UpdateContactNotes overwrites the notes of an existing contact.
func (s *Store) UpdateContactNotes(id int, notes string) error {
	c, ok := s.contacts[id]
	if !ok || id == 0 {
		return fmt.Errorf("%w: unknown contact %d", entity.ErrInvalidArgument, id)
	}
	c.Notes = notes
	s.contacts[id] = c
	s.dirty = true
	return nil
}

// ContactExists reports whether a contact with id exists. Id 0 never exists.
func (s *Store) ContactExists(id int) bool {
	if id == 0 {
		return false
	}
	_, ok := s.contacts[id]
	return ok
}

// MeetingExists reports whether a meeting with id exists. Id 0 never exists.
func (s *Store) MeetingExists(id int) bool {
	if id == 0 {
		return false
	}
	_, ok := s.meetingIndex[id]
	return ok
}

// GetMeeting returns the stored meeting with id, without classifying it.
// A missing meeting fails with entity.ErrNotFound.
func (s *Store) GetMeeting(id int) (entity.Meeting, error) {
	rec, ok := s.lookup(id)
	if !ok {
		return entity.Meeting{}, fmt.Errorf("%w: meeting %d", entity.ErrNotFound, id)
	}
	return s.toMeeting(rec), nil
}

// Contacts returns every contact ordered by id.
func (s *Store) Contacts() []entity.Contact {
	out := make([]entity.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	sortContacts(out)
	return out
}

// Meetings returns every meeting in insertion order.
func (s *Store) Meetings() []entity.Meeting {
	out := make([]entity.Meeting, 0, len(s.meetings))
	for _, rec := range s.meetings {
		out = append(out, s.toMeeting(rec))
	}
	return out
}

// ContactCount returns the number of contacts.
func (s *Store) ContactCount() int {
	return len(s.contacts)
}

// MeetingCount returns the number of meetings.
func (s *Store) MeetingCount() int {
	return len(s.meetings)
}

// Flush saves the full content of the store through the gateway.
func (s *Store) Flush() error {
	if err := s.gateway.Save(s.snapshot()); err != nil {
		s.logger.Errorf("save failed: %v", err)
		return fmt.Errorf("directory: flush: %w", err)
	}
	s.dirty = false
	return nil
}

// Modified reports whether the store changed since it was loaded or last
// flushed.
func (s *Store) Modified() bool {
	return s.dirty
}

// Close flushes the store if it was modified. It must be called by the
// owner before the process exits. Calls after the first return the first
// result without saving again.
func (s *Store) Close() error {
	if s.closed {
		return s.closeErr
	}
	s.closed = true
	if s.dirty {
		s.closeErr = s.Flush()
	}
	if s.ownsLogger {
		if err := s.logger.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	}
	return s.closeErr
}

func (s *Store) snapshot() *storage.Snapshot {
	return &storage.Snapshot{
		Contacts: s.Contacts(),
		Meetings: s.Meetings(),
	}
}

func (s *Store) lookup(id int) (meetingRecord, bool) {
	if id == 0 {
		return meetingRecord{}, false
	}
	idx, ok := s.meetingIndex[id]
	if !ok {
		return meetingRecord{}, false
	}
	return s.meetings[idx], true
}

// toMeeting resolves participant ids to contact copies.
func (s *Store) toMeeting(rec meetingRecord) entity.Meeting {
	participants := make([]entity.Contact, 0, len(rec.participants))
	for _, id := range rec.participants {
		participants = append(participants, s.contacts[id])
	}
	return entity.Meeting{
		ID:           rec.id,
		Date:         rec.date,
		Participants: participants,
		Kind:         rec.kind,
		Notes:        rec.notes,
	}
}

func sortContacts(contacts []entity.Contact) {
	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].ID < contacts[j].ID
	})
}
