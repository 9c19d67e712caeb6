package tzdb

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownZone is returned for zone ids the store does not know.
	ErrUnknownZone = errors.New("unknown time zone")
	// ErrUninitialized is returned by every call on a Database whose
	// store failed to load.
	ErrUninitialized = errors.New("time zone database not initialized")

	errNoStore = errors.New("loader returned no store")
)

// UnknownZoneError reports a zone id that is not in the store.
type UnknownZoneError struct {
	ID string
}

func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("unknown time zone %q", e.ID)
}

func (e *UnknownZoneError) Unwrap() error {
	return ErrUnknownZone
}

// ZoneError reports a failure to load or resolve a single zone.
type ZoneError struct {
	ID  string
	Err error
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("time zone %q: %v", e.ID, e.Err)
}

func (e *ZoneError) Unwrap() error {
	return e.Err
}

// InitError is the captured failure of a store load. It matches both
// ErrUninitialized and the cause.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%v: %v", ErrUninitialized, e.Err)
}

func (e *InitError) Unwrap() []error {
	return []error{ErrUninitialized, e.Err}
}

// zoneErr attaches id to err unless err already names a zone.
func zoneErr(id string, err error) error {
	var ze *ZoneError
	var ue *UnknownZoneError
	if errors.As(err, &ze) || errors.As(err, &ue) {
		return err
	}
	return &ZoneError{ID: id, Err: err}
}
