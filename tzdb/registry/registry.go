package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/posixtz"
	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzrules"
)

// ErrNoKey is returned by a Source for a key that does not exist.
var ErrNoKey = errors.New("registry key not found")

// utcKey is the key name some Windows versions use for UTC.
const utcKey = "Coordinated Universal Time"

// Zone is the content of one time zone key.
type Zone struct {
	TZI Record
	// Dynamic holds the "Dynamic DST" records by year, or nil.
	Dynamic map[int]Record
}

// Rules converts z. Years outside the dynamic records follow the first or
// last of them.
func (z Zone) Rules() (*tzrules.Rules, error) {
	base, err := z.TZI.Rule()
	if err != nil {
		return nil, err
	}
	if len(z.Dynamic) == 0 {
		return tzrules.Recurring(base, nil)
	}
	perYear := make(map[int]*posixtz.Rule, len(z.Dynamic))
	for y, rec := range z.Dynamic {
		if perYear[y], err = rec.Rule(); err != nil {
			return nil, fmt.Errorf("dynamic DST %d: %w", y, err)
		}
	}
	return tzrules.Recurring(base, perYear)
}

// Source reads time zone keys.
type Source interface {
	// Keys lists the names of all zone keys.
	Keys() ([]string, error)
	// Zone reads one key. It returns an error matching ErrNoKey if key
	// does not exist.
	Zone(key string) (Zone, error)
}

// MapSource is a Source held in memory.
type MapSource map[string]Zone

func (m MapSource) Keys() ([]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m MapSource) Zone(key string) (Zone, error) {
	z, ok := m[key]
	if !ok {
		return Zone{}, fmt.Errorf("%w: %s", ErrNoKey, key)
	}
	return z, nil
}

// Store serves the zones of a Source under their canonical ids.
type Store struct {
	src    Source
	names  *NameTable
	logger *zap.Logger

	// keys maps canonical ids to the key names they are read from.
	keys  map[string]string
	ids   []string
	cache tzdb.Cache
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report keys without a mapping.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithNames replaces DefaultNames.
func WithNames(t *NameTable) Option {
	return func(s *Store) {
		s.names = t
	}
}

// New lists the keys of src once. The available ids are the canonical ids
// whose Windows name is a key.
func New(src Source, opts ...Option) (*Store, error) {
	s := &Store{src: src, names: DefaultNames(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	keys, err := src.Keys()
	if err != nil {
		return nil, fmt.Errorf("list time zone keys: %w", err)
	}
	s.keys = make(map[string]string, len(keys))
	for _, key := range keys {
		name := key
		if name == utcKey {
			name = "UTC"
		}
		id, ok := s.names.Canonical(name)
		if !ok {
			s.logger.Debug("Skipping unmapped time zone key", zap.String("key", key))
			continue
		}
		if _, dup := s.keys[id]; dup && name != key {
			continue
		}
		s.keys[id] = key
	}
	s.ids = make([]string, 0, len(s.keys))
	for id := range s.keys {
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
	return s, nil
}

// RulesForID reads and converts the key of id on first access.
func (s *Store) RulesForID(id string) (*tzrules.Rules, error) {
	key, ok := s.keys[id]
	if !ok {
		return nil, &tzdb.UnknownZoneError{ID: id}
	}
	return s.cache.Load(id, func() (*tzrules.Rules, error) {
		z, err := s.src.Zone(key)
		if errors.Is(err, ErrNoKey) {
			return nil, &tzdb.UnknownZoneError{ID: id}
		}
		if err != nil {
			return nil, &tzdb.ZoneError{ID: id, Err: err}
		}
		r, err := z.Rules()
		if err != nil {
			return nil, &tzdb.ZoneError{ID: id, Err: fmt.Errorf("key %q: %w", key, err)}
		}
		return r, nil
	})
}

// AvailableIDs returns a copy of the canonical ids found at construction.
func (s *Store) AvailableIDs() ([]string, error) {
	return slices.Clone(s.ids), nil
}
