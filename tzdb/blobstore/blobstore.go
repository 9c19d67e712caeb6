// Package blobstore serves zone rules from a single indexed file that
// concatenates TZif data for many zones.
//
// The layout, all integers big-endian:
//
//	+-------------------+-----------+-----------+-----------+
//	| version tag (12)  | index (4) | data (4)  | final (4) |
//	+-------------------+-----------+-----------+-----------+
//	| index entries from index to data offset, 52 octets each:
//	|   name (40, NUL padded) | start (4) | length (4) | reserved (4)
//	+--------------------------------------------------------
//	| data region; entry start is relative to the data offset
//	+--------------------------------------------------------
//
// The version tag starts with "tzdata", e.g. "tzdata2025b". When a name
// occurs more than once, the last entry wins.
package blobstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/ngrash/tzoffset/internal/bytereader"
	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzrules"
)

// ErrMalformed reports a blob whose header or index is invalid.
var ErrMalformed = errors.New("malformed tzdata blob")

const (
	tagSize    = 12
	headerSize = tagSize + 3*4
	nameSize   = 40
	entrySize  = nameSize + 3*4
	tagPrefix  = "tzdata"
)

var order = binary.BigEndian

type entry struct {
	start, length int
}

// Store serves the zones of one blob. It is safe for concurrent use.
type Store struct {
	version string
	data    []byte
	entries map[string]entry
	ids     []string
	cache   tzdb.Cache
}

// New indexes b. The header and the whole index are validated here;
// zone data is parsed on first access.
func New(b []byte) (*Store, error) {
	r := bytereader.New(b)
	tag, err := r.FixedString(tagSize)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !strings.HasPrefix(tag, tagPrefix) {
		return nil, fmt.Errorf("%w: version tag %q", ErrMalformed, tag)
	}
	var offs [3]int32
	for i := range offs {
		if offs[i], err = r.I32BE(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	index, data := int(offs[0]), int(offs[1]) // offs[2] is the final offset and unused
	switch {
	case index < headerSize || data < index || data > len(b):
		return nil, fmt.Errorf("%w: index offset %d, data offset %d, size %d", ErrMalformed, index, data, len(b))
	case (data-index)%entrySize != 0:
		return nil, fmt.Errorf("%w: index size %d is not a multiple of %d", ErrMalformed, data-index, entrySize)
	}

	s := &Store{version: tag, data: b[data:], entries: make(map[string]entry)}
	r = bytereader.New(b[index:data])
	for i := 0; r.Len() > 0; i++ {
		name, err := r.FixedString(nameSize)
		if err != nil {
			return nil, fmt.Errorf("read index entry %d: %w", i, err)
		}
		var start, length, reserved int32
		for _, v := range []*int32{&start, &length, &reserved} {
			if *v, err = r.I32BE(); err != nil {
				return nil, fmt.Errorf("read index entry %d: %w", i, err)
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w: index entry %d has no name", ErrMalformed, i)
		}
		if start < 0 || length < 0 || int(start)+int(length) > len(s.data) {
			return nil, fmt.Errorf("%w: entry %q spans [%d, %d+%d) outside data of size %d", ErrMalformed, name, start, start, length, len(s.data))
		}
		if _, dup := s.entries[name]; !dup {
			s.ids = append(s.ids, name)
		}
		s.entries[name] = entry{start: int(start), length: int(length)}
	}
	sort.Strings(s.ids)
	return s, nil
}

// Open reads and indexes the blob at path on fs.
func Open(fs afero.Fs, path string) (*Store, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read tzdata blob: %w", err)
	}
	s, err := New(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Version returns the version tag, e.g. "tzdata2025b".
func (s *Store) Version() string {
	return s.version
}

// RulesForID parses the entry of id on first access.
func (s *Store) RulesForID(id string) (*tzrules.Rules, error) {
	b, err := s.ZoneData(id)
	if err != nil {
		return nil, err
	}
	return s.cache.Load(id, func() (*tzrules.Rules, error) {
		return tzdb.ParseTZif(id, b)
	})
}

// ZoneData returns the data of id's entry. The slice aliases the blob.
func (s *Store) ZoneData(id string) ([]byte, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, &tzdb.UnknownZoneError{ID: id}
	}
	return s.data[e.start : e.start+e.length : e.start+e.length], nil
}

// AvailableIDs returns a copy of the names of all entries.
func (s *Store) AvailableIDs() ([]string, error) {
	return slices.Clone(s.ids), nil
}

// Entry is one zone written by Write.
type Entry struct {
	Name string
	Data []byte
}

// Build writes a blob holding zones, ordered by name. version must start
// with "tzdata".
func Build(w io.Writer, version string, zones map[string][]byte) error {
	entries := make([]Entry, 0, len(zones))
	for name, data := range zones {
		entries = append(entries, Entry{Name: name, Data: data})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return Write(w, version, entries)
}

// Write writes a blob holding entries in the given order. Duplicate names
// are written as they are; identical data is stored once.
func Write(w io.Writer, version string, entries []Entry) error {
	if !strings.HasPrefix(version, tagPrefix) || len(version) > tagSize {
		return fmt.Errorf("invalid version tag %q", version)
	}
	index := headerSize
	data := index + len(entries)*entrySize

	// Entries with identical data share one range.
	starts := make(map[string]int, len(entries))
	var payload [][]byte
	size := 0
	for _, e := range entries {
		if e.Name == "" || len(e.Name) > nameSize || strings.IndexByte(e.Name, 0) >= 0 {
			return fmt.Errorf("invalid zone name %q", e.Name)
		}
		if _, ok := starts[string(e.Data)]; !ok {
			starts[string(e.Data)] = size
			payload = append(payload, e.Data)
			size += len(e.Data)
		}
	}
	if int64(data)+int64(size) > 1<<31-1 {
		return fmt.Errorf("blob exceeds %d bytes", 1<<31-1)
	}

	var tag [tagSize]byte
	copy(tag[:], version)
	header := []any{tag, int32(index), int32(data), int32(data + size)}
	for _, v := range header {
		if err := binary.Write(w, order, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, e := range entries {
		var name [nameSize]byte
		copy(name[:], e.Name)
		for _, v := range []any{name, int32(starts[string(e.Data)]), int32(len(e.Data)), int32(0)} {
			if err := binary.Write(w, order, v); err != nil {
				return fmt.Errorf("write index entry %q: %w", e.Name, err)
			}
		}
	}
	for _, p := range payload {
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("write data: %w", err)
		}
	}
	return nil
}
