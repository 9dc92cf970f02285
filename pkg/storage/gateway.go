// Package storage loads and saves the directory's contacts and meetings as a
// single JSON file.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/rolodex/pkg/codec"
	"github.com/entrhq/rolodex/pkg/entity"
	"github.com/entrhq/rolodex/pkg/logging"
)

// DefaultFileMode is the permission used for the data file.
const DefaultFileMode os.FileMode = 0o600

// Snapshot is the full content of a directory at one point in time.
type Snapshot struct {
	Contacts []entity.Contact
	Meetings []entity.Meeting
}

// FileGateway stores snapshots in one file. Saves are atomic: the new
// content is written to a temporary file next to the target and renamed
// over it.
type FileGateway struct {
	path   string
	mode   os.FileMode
	codec  *codec.Codec
	logger *logging.Logger
}

// Option configures a FileGateway.
type Option func(*FileGateway)

// WithCodec sets the codec, and with it the calendar location of dates.
func WithCodec(c *codec.Codec) Option {
	return func(g *FileGateway) { g.codec = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *FileGateway) { g.logger = l }
}

// WithFileMode sets the permission of the data file.
func WithFileMode(mode os.FileMode) Option {
	return func(g *FileGateway) { g.mode = mode }
}

// NewFileGateway creates a gateway for the file at path.
func NewFileGateway(path string, opts ...Option) *FileGateway {
	g := &FileGateway{
		path:  path,
		mode:  DefaultFileMode,
		codec: codec.New(nil),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.Discard()
	}
	return g
}

// Path returns the path of the data file.
func (g *FileGateway) Path() string {
	return g.path
}

// Load reads the data file. A missing file yields an empty snapshot.
// Records that cannot be decoded are skipped and logged; the remaining
// records are returned in file order.
func (g *FileGateway) Load() (*Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		g.logger.Debugf("no data file at %s, starting empty", g.path)
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", g.path, err)
	}

	doc, err := codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", g.path, err)
	}
	for _, key := range doc.Unknown {
		g.logger.Warnf("ignoring unknown key %q in %s", key, g.path)
	}

	snap := &Snapshot{
		Contacts: make([]entity.Contact, 0, len(doc.Contacts)),
		Meetings: make([]entity.Meeting, 0, len(doc.Meetings)),
	}
	for _, r := range doc.Contacts {
		c, err := g.codec.DecodeContact(r)
		if err != nil {
			g.logger.Warnf("skipping contact record %d: %v", r.ID, err)
			continue
		}
		snap.Contacts = append(snap.Contacts, c)
	}
	for _, r := range doc.Meetings {
		m, err := g.codec.DecodeMeeting(r)
		if err != nil {
			g.logger.Warnf("skipping meeting record %d: %v", r.ID, err)
			continue
		}
		snap.Meetings = append(snap.Meetings, m)
	}

	g.logger.Debugf("loaded %d contacts and %d meetings from %s", len(snap.Contacts), len(snap.Meetings), g.path)
	return snap, nil
}

// Save replaces the data file with the snapshot. On failure the previous
// file is left untouched.
func (g *FileGateway) Save(snap *Snapshot) error {
	doc := &codec.Document{
		Contacts: make([]codec.ContactRecord, 0, len(snap.Contacts)),
		Meetings: make([]codec.MeetingRecord, 0, len(snap.Meetings)),
	}
	for _, c := range snap.Contacts {
		doc.Contacts = append(doc.Contacts, g.codec.EncodeContact(c))
	}
	for _, m := range snap.Meetings {
		doc.Meetings = append(doc.Meetings, g.codec.EncodeMeeting(m))
	}

	data, err := codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if err := writeFileAtomic(g.path, data, g.mode); err != nil {
		return err
	}

	g.logger.Debugf("saved %d contacts and %d meetings to %s", len(snap.Contacts), len(snap.Meetings), g.path)
	return nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("storage: create directory for %s: %w", path, err)
	}

	tempPath := path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("storage: close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("storage: atomic rename %s: %w", path, err)
	}
	return nil
}
