//go:build !windows

package registry

import (
	"errors"
	"fmt"

	"github.com/ngrash/tzoffset/tzdb"
)

// Loader fails on systems without a Windows registry.
func Loader() (tzdb.Store, error) {
	return nil, fmt.Errorf("windows registry: %w", errors.ErrUnsupported)
}
