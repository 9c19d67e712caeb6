package dirstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzrules"
)

func berlin(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "testdata", "Berlin"))
	require.NoError(t, err)
	return b
}

func memTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	b := berlin(t)
	files := map[string][]byte{
		"/zi/Europe/Berlin":       b,
		"/zi/CET":                 b,
		"/zi/posix/Europe/Berlin": b,
		"/zi/right/Europe/Berlin": b,
		"/zi/posixrules":          b,
		"/zi/zone.tab":            []byte("# tzdb timezone descriptions\nDE\t+5230+01322\tEurope/Berlin\n"),
		"/zi/leapseconds":         []byte("#\n"),
		"/zi/Empty":               nil,
		"/zi/Corrupt":             append([]byte("TZif2"), make([]byte, 10)...),
	}
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
	}
	require.NoError(t, fs.MkdirAll("/zi/Etc", 0o755))
	return fs
}

func TestStore_MemFs(t *testing.T) {
	s, err := Open(memTree(t), "/zi", WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	ids, err := s.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"CET", "Corrupt", "Europe/Berlin"}, ids)

	r, err := s.RulesForID("Europe/Berlin")
	require.NoError(t, err)
	o, err := r.OffsetAt(time.Date(2040, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, tzrules.Offset(7200), o)

	again, err := s.RulesForID("Europe/Berlin")
	require.NoError(t, err)
	assert.Same(t, r, again)

	var src tzdb.DataSource = s
	d, err := src.ZoneData("CET")
	require.NoError(t, err)
	assert.Equal(t, berlin(t), d)
	_, err = src.ZoneData("posixrules")
	assert.ErrorIs(t, err, tzdb.ErrUnknownZone)
}

func TestStore_UnknownIDs(t *testing.T) {
	s := New(memTree(t), "/zi")
	for _, id := range []string{
		"Europe/Paris",
		"Europe",
		"Etc",
		"",
		".",
		"/zi/Europe/Berlin",
		"../zi/Europe/Berlin",
		"Europe/../Europe/Berlin",
		`Europe\Berlin`,
		"posix/Europe/Berlin",
		"right/Europe/Berlin",
		"posixrules",
		"zone.tab",
		"leapseconds",
		"Empty",
	} {
		_, err := s.RulesForID(id)
		assert.ErrorIs(t, err, tzdb.ErrUnknownZone, "RulesForID(%q)", id)
		_, err = s.ZoneData(id)
		assert.ErrorIs(t, err, tzdb.ErrUnknownZone, "ZoneData(%q)", id)
	}
}

func TestStore_ZoneAddedAfterLookup(t *testing.T) {
	fs := memTree(t)
	s := New(fs, "/zi")
	_, err := s.RulesForID("Europe/Paris")
	require.ErrorIs(t, err, tzdb.ErrUnknownZone)
	_, err = s.RulesForID("zone.tab")
	require.ErrorIs(t, err, tzdb.ErrUnknownZone)

	require.NoError(t, afero.WriteFile(fs, "/zi/Europe/Paris", berlin(t), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/zi/zone.tab", berlin(t), 0o644))
	for _, id := range []string{"Europe/Paris", "zone.tab"} {
		r, err := s.RulesForID(id)
		require.NoError(t, err, id)
		o, err := r.OffsetAt(time.Date(2040, time.January, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, tzrules.Offset(3600), o)
	}
}

func TestStore_AvailableIDsIsACopy(t *testing.T) {
	s := New(memTree(t), "/zi")
	ids, err := s.AvailableIDs()
	require.NoError(t, err)
	ids[0] = "Mutated"
	again, err := s.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"CET", "Corrupt", "Europe/Berlin"}, again)
}

func TestStore_CorruptZone(t *testing.T) {
	s := New(memTree(t), "/zi")
	_, err := s.RulesForID("Corrupt")
	var ze *tzdb.ZoneError
	require.ErrorAs(t, err, &ze)
	assert.Equal(t, "Corrupt", ze.ID)
	assert.NotErrorIs(t, err, tzdb.ErrUnknownZone)
}

func TestOpen_MissingRoot(t *testing.T) {
	_, err := Open(afero.NewMemMapFs(), "/nowhere")
	assert.ErrorIs(t, err, os.ErrNotExist)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0o644))
	_, err = Open(fs, "/file")
	assert.Error(t, err)
}

func TestStore_OsFsSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Europe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Europe", "Berlin"), berlin(t), 0o644))
	if err := os.Symlink(filepath.Join("Europe", "Berlin"), filepath.Join(root, "Arctic_Longyearbyen")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink("Missing", filepath.Join(root, "Dangling")))
	require.NoError(t, os.Symlink("Europe", filepath.Join(root, "EuropeDir")))

	db := tzdb.New(func() (tzdb.Store, error) {
		return Open(afero.NewOsFs(), root)
	}, tzdb.WithLogger(zaptest.NewLogger(t)))

	ids, err := db.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Arctic_Longyearbyen", "Europe/Berlin"}, ids)

	o, err := db.OffsetAt("Arctic_Longyearbyen", time.Date(2040, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, tzrules.Offset(3600), o)

	_, err = db.Rules("Dangling")
	assert.ErrorIs(t, err, tzdb.ErrUnknownZone)
}
