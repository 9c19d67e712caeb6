// Command tzoffset resolves UTC offsets of IANA time zones and manages the
// zone data it reads them from.
//
//	tzoffset zones
//	tzoffset offset Europe/Berlin 2040-07-01T12:00:00Z
//	tzoffset local Europe/Berlin 2040-10-28T02:30:00 --prefer +01:00
//	tzoffset transitions Europe/Berlin --count 4
//	tzoffset inspect /usr/share/zoneinfo/Europe/Berlin
//	tzoffset diff a b
//	tzoffset pack --version tzdata2025b /usr/share/zoneinfo tzdata.blob
//	tzoffset import-sqlite zones.db
//	tzoffset serve --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

func main() {
	cmd := newRootCmd(afero.NewOsFs())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tzoffset:", err)
		os.Exit(1)
	}
}
