//go:build windows

package registry

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sys/windows/registry"

	"github.com/ngrash/tzoffset/tzdb"
)

// TimeZonesKey is the registry path of the time zone database below
// HKEY_LOCAL_MACHINE.
const TimeZonesKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Time Zones`

// System reads the time zone keys of the local machine.
type System struct{}

func (System) Keys() ([]string, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, TimeZonesKey, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	defer k.Close()
	return k.ReadSubKeyNames(-1)
}

func (System) Zone(key string) (Zone, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, TimeZonesKey+`\`+key, registry.READ)
	if errors.Is(err, registry.ErrNotExist) {
		return Zone{}, fmt.Errorf("%w: %s", ErrNoKey, key)
	}
	if err != nil {
		return Zone{}, err
	}
	defer k.Close()

	var z Zone
	if z.TZI, err = readRecord(k, "TZI"); err != nil {
		return Zone{}, err
	}
	dk, err := registry.OpenKey(k, "Dynamic DST", registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return z, nil
	}
	if err != nil {
		return Zone{}, err
	}
	defer dk.Close()
	first, _, err := dk.GetIntegerValue("FirstEntry")
	if err != nil {
		return Zone{}, fmt.Errorf("dynamic DST: %w", err)
	}
	last, _, err := dk.GetIntegerValue("LastEntry")
	if err != nil {
		return Zone{}, fmt.Errorf("dynamic DST: %w", err)
	}
	if first > last {
		return Zone{}, fmt.Errorf("%w: dynamic DST from %d to %d", ErrInvalidRecord, first, last)
	}
	z.Dynamic = make(map[int]Record, last-first+1)
	for y := int(first); y <= int(last); y++ {
		if z.Dynamic[y], err = readRecord(dk, strconv.Itoa(y)); err != nil {
			return Zone{}, fmt.Errorf("dynamic DST: %w", err)
		}
	}
	return z, nil
}

func readRecord(k registry.Key, name string) (Record, error) {
	b, _, err := k.GetBinaryValue(name)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", name, err)
	}
	return ParseRecord(b)
}

// Loader opens the local machine's registry with the default names.
func Loader() (tzdb.Store, error) {
	return New(System{})
}
