// Package embedded carries a copy of the IANA time zone database inside the
// binary, for systems without a zoneinfo directory.
package embedded

import (
	_ "embed"
	"sync"

	"github.com/ngrash/tzoffset/tzdb"
	"github.com/ngrash/tzoffset/tzdb/blobstore"
)

//go:generate go run ../../cmd/tzoffset pack --version tzdata2025b /usr/share/zoneinfo tzdata.blob

//go:embed tzdata.blob
var blob []byte

var store = sync.OnceValues(func() (*blobstore.Store, error) {
	return blobstore.New(blob)
})

// Store returns the store over the embedded blob. It is indexed on the
// first call and shared afterwards.
func Store() (*blobstore.Store, error) {
	return store()
}

// Loader is a tzdb.Loader for the embedded blob.
func Loader() (tzdb.Store, error) {
	return Store()
}
