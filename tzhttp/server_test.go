package tzhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzrules"
)

type posixStore map[string]string

func (m posixStore) RulesForID(id string) (*tzrules.Rules, error) {
	tz, ok := m[id]
	if !ok {
		return nil, &tzdb.UnknownZoneError{ID: id}
	}
	return tzrules.FromPOSIX(tz)
}

func (m posixStore) AvailableIDs() ([]string, error) {
	return []string{"Asia/Kolkata", "Europe/Berlin"}, nil
}

var testStore = posixStore{
	"Europe/Berlin": "CET-1CEST,M3.5.0,M10.5.0/3",
	"Asia/Kolkata":  "IST-5:30",
}

var now = time.Date(2040, time.July, 1, 12, 0, 0, 0, time.UTC)

func newServer(t *testing.T, db *tzdb.Database) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(db, Options{
		AllowedOrigins: []string{"https://example.com"},
		Logger:         zaptest.NewLogger(t),
		Now:            func() time.Time { return now },
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, query url.Values, out any) int {
	t.Helper()
	u := srv.URL + path
	if query != nil {
		u += "?" + query.Encode()
	}
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestZones(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))
	var ids []string
	assert.Equal(t, http.StatusOK, get(t, srv, "/zones", nil, &ids))
	assert.Equal(t, []string{"Asia/Kolkata", "Europe/Berlin"}, ids)

	var health map[string]string
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz", nil, &health))
	assert.Equal(t, "ok", health["status"])
}

func TestOffset(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))

	var resp OffsetResponse
	status := get(t, srv, "/offset", url.Values{"zone": {"Europe/Berlin"}, "at": {"2040-01-01T00:00:00Z"}}, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, OffsetResponse{Zone: "Europe/Berlin", At: "2040-01-01T00:00:00Z", Offset: "+01:00", Seconds: 3600}, resp)

	// at defaults to now.
	status = get(t, srv, "/offset", url.Values{"zone": {"Europe/Berlin"}}, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2040-07-01T12:00:00Z", resp.At)
	assert.Equal(t, int32(7200), resp.Seconds)
}

func TestInfo(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))
	cases := []struct {
		local string
		want  InfoResponse
	}{
		{"2040-07-01T12:00:00", InfoResponse{Zone: "Europe/Berlin", Local: "2040-07-01T12:00:00", Kind: "regular", Offset: "+02:00"}},
		{"2040-03-25T02:30:00", InfoResponse{Zone: "Europe/Berlin", Local: "2040-03-25T02:30:00", Kind: "gap",
			Transition: &TransitionDTO{At: "2040-03-25T01:00:00Z", Before: "+01:00", After: "+02:00"}}},
		{"2040-10-28T02:30:00", InfoResponse{Zone: "Europe/Berlin", Local: "2040-10-28T02:30:00", Kind: "overlap",
			Transition: &TransitionDTO{At: "2040-10-28T01:00:00Z", Before: "+02:00", After: "+01:00"}}},
	}
	for _, c := range cases {
		var resp InfoResponse
		status := get(t, srv, "/info", url.Values{"zone": {"Europe/Berlin"}, "local": {c.local}}, &resp)
		assert.Equal(t, http.StatusOK, status, c.local)
		assert.Equal(t, c.want, resp)
	}
}

func TestInstant(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))
	cases := []struct {
		local, prefer, want string
	}{
		{"2040-07-01T12:00:00", "", "2040-07-01T12:00:00+02:00"},
		{"2040-10-28T02:30:00", "", "2040-10-28T02:30:00+02:00"},
		{"2040-10-28T02:30:00", "+01:00", "2040-10-28T02:30:00+01:00"},
		{"2040-10-28T02:30:00", "+05:00", "2040-10-28T02:30:00+02:00"},
		{"2040-03-25T02:30:00.5", "", "2040-03-25T03:30:00.5+02:00"},
	}
	for _, c := range cases {
		q := url.Values{"zone": {"Europe/Berlin"}, "local": {c.local}}
		if c.prefer != "" {
			q.Set("prefer", c.prefer)
		}
		var resp InstantResponse
		assert.Equal(t, http.StatusOK, get(t, srv, "/instant", q, &resp))
		assert.Equal(t, c.want, resp.Instant, "%s prefer %q", c.local, c.prefer)
	}
}

func TestTransitions(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))

	var resp TransitionsResponse
	status := get(t, srv, "/transitions", url.Values{"zone": {"Europe/Berlin"}, "from": {"2040-01-01T00:00:00Z"}, "count": {"2"}}, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, TransitionsResponse{Zone: "Europe/Berlin", Transitions: []TransitionDTO{
		{At: "2040-03-25T01:00:00Z", Before: "+01:00", After: "+02:00"},
		{At: "2040-10-28T01:00:00Z", Before: "+02:00", After: "+01:00"},
	}}, resp)

	status = get(t, srv, "/transitions", url.Values{"zone": {"Asia/Kolkata"}}, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, resp.Transitions)
	assert.Empty(t, resp.Transitions)
}

func TestErrors(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))
	cases := []struct {
		path  string
		query url.Values
		want  int
	}{
		{"/offset", url.Values{}, http.StatusBadRequest},
		{"/offset", url.Values{"zone": {"Mars/Olympus_Mons"}}, http.StatusNotFound},
		{"/offset", url.Values{"zone": {"Europe/Berlin"}, "at": {"yesterday"}}, http.StatusBadRequest},
		{"/info", url.Values{"zone": {"Europe/Berlin"}}, http.StatusBadRequest},
		{"/info", url.Values{"zone": {"Europe/Berlin"}, "local": {"2041-02-29T00:00:00"}}, http.StatusBadRequest},
		{"/instant", url.Values{"zone": {"Europe/Berlin"}, "local": {"2040-01-01T00:00:00"}, "prefer": {"CET"}}, http.StatusBadRequest},
		{"/transitions", url.Values{"zone": {"Europe/Berlin"}, "count": {"0"}}, http.StatusBadRequest},
		{"/transitions", url.Values{"zone": {"Europe/Berlin"}, "count": {"101"}}, http.StatusBadRequest},
	}
	for _, c := range cases {
		var resp ErrorResponse
		assert.Equal(t, c.want, get(t, srv, c.path, c.query, &resp), "%s?%s", c.path, c.query.Encode())
		assert.NotEmpty(t, resp.Details)
	}
}

func TestUninitialized(t *testing.T) {
	db := tzdb.New(func() (tzdb.Store, error) { return nil, errors.New("no zoneinfo") })
	srv := newServer(t, db)

	var resp ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/healthz", nil, &resp))
	assert.Contains(t, resp.Details, "no zoneinfo")
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/offset", url.Values{"zone": {"Europe/Berlin"}}, &resp))
}

func TestCORS(t *testing.T) {
	srv := newServer(t, tzdb.FromStore(testStore))
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/zones", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
