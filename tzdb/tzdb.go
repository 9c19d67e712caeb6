// Package tzdb maps time zone ids to their rules. A Database loads its
// backing Store once and serves lookups from it for the rest of the
// process.
package tzdb

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/tzif"
	"github.com/ngrash/tzoffset/tzrules"
)

// Store is a read-only source of zone rules.
type Store interface {
	// RulesForID returns the rules of the zone id. Unknown ids yield an
	// error matching ErrUnknownZone.
	RulesForID(id string) (*tzrules.Rules, error)
	// AvailableIDs returns the known zone ids, sorted and without
	// duplicates.
	AvailableIDs() ([]string, error)
}

// DataSource is implemented by stores that hold each zone as TZif data.
type DataSource interface {
	Store
	// ZoneData returns the TZif data of id. Unknown ids yield an error
	// matching ErrUnknownZone.
	ZoneData(id string) ([]byte, error)
}

// Loader opens a Store. It is called at most once per Database.
type Loader func() (Store, error)

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(db *Database) {
		db.logger = l
	}
}

// Database resolves offsets for zone ids. The zero value is not usable;
// create one with New.
type Database struct {
	load   Loader
	logger *zap.Logger

	once  sync.Once
	store Store
	err   error
}

// New returns a Database that opens its store with load on first use.
func New(load Loader, opts ...Option) *Database {
	db := &Database{load: load, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// FromStore returns a Database over an already opened store.
func FromStore(s Store, opts ...Option) *Database {
	return New(func() (Store, error) { return s, nil }, opts...)
}

// Init loads the store if that has not happened yet. A failed load is not
// retried: Init and every lookup return the same *InitError from then on.
func (db *Database) Init() error {
	db.once.Do(func() {
		start := time.Now()
		s, err := db.load()
		if err == nil && s == nil {
			err = errNoStore
		}
		if err != nil {
			db.err = &InitError{Err: err}
			db.logger.Error("Failed to load time zone database", zap.Error(err))
			return
		}
		db.store = s
		db.logger.Debug("Loaded time zone database", zap.Duration("took", time.Since(start)))
	})
	return db.err
}

// Rules returns the rules of zone id.
func (db *Database) Rules(id string) (*tzrules.Rules, error) {
	if err := db.Init(); err != nil {
		return nil, err
	}
	r, err := db.store.RulesForID(id)
	if err != nil {
		db.logger.Debug("Zone lookup failed", zap.String("zone", id), zap.Error(err))
		return nil, zoneErr(id, err)
	}
	return r, nil
}

// AvailableIDs returns the sorted ids of all known zones.
func (db *Database) AvailableIDs() ([]string, error) {
	if err := db.Init(); err != nil {
		return nil, err
	}
	return db.store.AvailableIDs()
}

// OffsetAt returns the offset of zone id at t.
func (db *Database) OffsetAt(id string, t time.Time) (tzrules.Offset, error) {
	r, err := db.Rules(id)
	if err != nil {
		return 0, err
	}
	o, err := r.OffsetAt(t)
	if err != nil {
		return 0, zoneErr(id, err)
	}
	return o, nil
}

// InfoAt classifies the local date-time d in zone id.
func (db *Database) InfoAt(id string, d tzrules.LocalDateTime) (tzrules.OffsetInfo, error) {
	r, err := db.Rules(id)
	if err != nil {
		return nil, err
	}
	info, err := r.InfoAt(d)
	if err != nil {
		return nil, zoneErr(id, err)
	}
	return info, nil
}

// AtLocal returns the instant of the local date-time d in zone id. See
// tzrules.Rules.AtLocal for how gaps and overlaps are resolved.
func (db *Database) AtLocal(id string, d tzrules.LocalDateTime, preferred *tzrules.Offset) (time.Time, error) {
	r, err := db.Rules(id)
	if err != nil {
		return time.Time{}, err
	}
	t, err := r.AtLocal(d, preferred)
	if err != nil {
		return time.Time{}, zoneErr(id, err)
	}
	return t, nil
}

// Transitions returns up to n transitions of zone id strictly after t.
func (db *Database) Transitions(id string, t time.Time, n int) ([]tzrules.Change, error) {
	r, err := db.Rules(id)
	if err != nil {
		return nil, err
	}
	var changes []tzrules.Change
	for len(changes) < n {
		c, ok, err := r.NextTransition(t)
		if err != nil {
			return changes, zoneErr(id, err)
		}
		if !ok {
			break
		}
		changes = append(changes, c)
		t = c.At
	}
	return changes, nil
}

// ParseTZif parses data as a TZif file and builds the rules of zone id
// from it. Stores holding TZif data share it.
func ParseTZif(id string, data []byte) (*tzrules.Rules, error) {
	f, err := tzif.Parse(data)
	if err != nil {
		return nil, &ZoneError{ID: id, Err: err}
	}
	r, err := tzrules.FromTZif(f)
	if err != nil {
		return nil, &ZoneError{ID: id, Err: err}
	}
	return r, nil
}

// Cache memoizes the rules of each zone, failures included, so every zone
// is parsed at most once. The zero value is ready to use.
type Cache struct {
	m sync.Map // string -> *cacheEntry
}

type cacheEntry struct {
	once  sync.Once
	rules *tzrules.Rules
	err   error
}

// Load returns the cached result for id, calling parse on first access.
func (c *Cache) Load(id string, parse func() (*tzrules.Rules, error)) (*tzrules.Rules, error) {
	v, _ := c.m.LoadOrStore(id, &cacheEntry{})
	e := v.(*cacheEntry)
	e.once.Do(func() {
		e.rules, e.err = parse()
	})
	return e.rules, e.err
}

// Forget drops the cached result for id.
func (c *Cache) Forget(id string) {
	c.m.Delete(id)
}
