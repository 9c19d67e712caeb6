// Package dirstore serves zone rules from a zoneinfo directory tree such as
// /usr/share/zoneinfo. Zone ids are slash separated paths relative to the
// root; every zone is a TZif file.
package dirstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzif"
	"github.com/ngrash/tzoffset/tzrules"
)

// DefaultRoot is the zoneinfo directory of most Unix systems.
const DefaultRoot = "/usr/share/zoneinfo"

// excluded names duplicate other zones or are not zones at all.
var excluded = map[string]bool{
	"posix":      true,
	"right":      true,
	"posixrules": true,
	"localtime":  true,
}

// Store reads zones from a directory tree on an afero filesystem.
type Store struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger

	cache tzdb.Cache

	idsOnce sync.Once
	ids     []string
	idsErr  error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report skipped files.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New returns a store rooted at root on fs. The root is not checked; use
// Open for that.
func New(fs afero.Fs, root string, opts ...Option) *Store {
	s := &Store{fs: fs, root: root, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a store rooted at root on fs and fails if root is not a
// directory.
func Open(fs afero.Fs, root string, opts ...Option) (*Store, error) {
	fi, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open zoneinfo root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("open zoneinfo root: %s is not a directory", root)
	}
	return New(fs, root, opts...), nil
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// RulesForID reads and parses the file for id. Symbolic links are
// followed, so aliases resolve to their target zone. Only ids whose file
// exists are cached.
func (s *Store) RulesForID(id string) (*tzrules.Rules, error) {
	if _, err := s.path(id); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(id, func() (*tzrules.Rules, error) {
		b, err := s.ZoneData(id)
		if err != nil {
			return nil, err
		}
		return tzdb.ParseTZif(id, b)
	})
	if errors.Is(err, tzdb.ErrUnknownZone) {
		s.cache.Forget(id)
	}
	return r, err
}

// ZoneData reads the file for id without parsing it. Files without the
// TZif magic, such as zone.tab, are unknown.
func (s *Store) ZoneData(id string) ([]byte, error) {
	name, err := s.path(id)
	if err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(s.fs, name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, &tzdb.UnknownZoneError{ID: id}
	case err != nil:
		return nil, &tzdb.ZoneError{ID: id, Err: err}
	case !bytes.HasPrefix(b, tzif.Magic[:]):
		return nil, &tzdb.UnknownZoneError{ID: id}
	}
	return b, nil
}

// path returns the file name of id if it is a regular file, following
// links.
func (s *Store) path(id string) (string, error) {
	if !validID(id) {
		return "", &tzdb.UnknownZoneError{ID: id}
	}
	name := filepath.Join(s.root, filepath.FromSlash(id))
	fi, err := s.fs.Stat(name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", &tzdb.UnknownZoneError{ID: id}
	case err != nil:
		return "", &tzdb.ZoneError{ID: id, Err: err}
	case !fi.Mode().IsRegular():
		return "", &tzdb.UnknownZoneError{ID: id}
	}
	return name, nil
}

// validID reports whether id names a path inside the root that is not
// excluded.
func validID(id string) bool {
	if !iofs.ValidPath(id) || id == "." || strings.Contains(id, `\`) {
		return false
	}
	first, _, _ := strings.Cut(id, "/")
	return !excluded[first]
}

// AvailableIDs walks the tree once and returns the ids of all TZif files
// and links to TZif files. Other files, such as zone.tab, are skipped.
// The result is a copy.
func (s *Store) AvailableIDs() ([]string, error) {
	s.idsOnce.Do(func() {
		s.ids, s.idsErr = s.walk()
	})
	return slices.Clone(s.ids), s.idsErr
}

func (s *Store) walk() ([]string, error) {
	var ids []string
	err := afero.Walk(s.fs, s.root, func(path string, fi iofs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		id := filepath.ToSlash(rel)
		if !validID(id) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		switch mode := fi.Mode(); {
		case mode.IsDir():
			return nil
		case mode&iofs.ModeSymlink != 0:
			target, err := s.fs.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				s.logger.Debug("Skipping link", zap.String("path", path), zap.Error(err))
				return nil
			}
		case !mode.IsRegular():
			return nil
		}
		ok, err := s.hasMagic(path)
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Debug("Skipping non-TZif file", zap.String("path", path))
			return nil
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) hasMagic(path string) (bool, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	var magic [len(tzif.Magic)]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(magic[:], tzif.Magic[:]), nil
}
