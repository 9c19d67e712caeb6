package tzif

import (
	"fmt"
	"io"
	"math"

	"github.com/ngrash/tzoffset/internal/bytereader"
)

// Data represents every section of a TZif file as stored, including the
// 32-bit block and leap second records. It is used for inspection and
// encoding; offset resolution works on File.
type Data struct {
	Version Version

	V1Header Header
	V1Data   DataBlock

	V2Header Header
	V2Data   DataBlock
	V2Footer Footer
}

// Encode writes the given TZif data to the given writer.
// If the version is V1, the V2 fields are not written.
func (d Data) Encode(w io.Writer) error {
	if err := d.V1Header.Write(w); err != nil {
		return fmt.Errorf("write v1 header: %w", err)
	}
	if err := d.V1Data.Write(w, 4); err != nil {
		return fmt.Errorf("write v1 data: %w", err)
	}
	if d.Version > V1 {
		if err := d.V2Header.Write(w); err != nil {
			return fmt.Errorf("write v2 header: %w", err)
		}
		if err := d.V2Data.Write(w, 8); err != nil {
			return fmt.Errorf("write v2 data: %w", err)
		}
		if err := d.V2Footer.Write(w); err != nil {
			return fmt.Errorf("write v2 footer: %w", err)
		}
	}
	return nil
}

// Decode reads all sections of a TZif file.
// If the version is V1, the V2 fields are left empty.
func Decode(b []byte) (Data, error) {
	var (
		d   Data
		err error
		r   = bytereader.New(b)
	)
	d.V1Header, err = readHeader(r)
	if err != nil {
		return d, fmt.Errorf("read v1 header: %w", err)
	}
	d.Version = d.V1Header.Version

	d.V1Data, err = readBlock(r, d.V1Header, 4)
	if err != nil {
		return d, fmt.Errorf("read v1 data block: %w", err)
	}

	if d.Version > V1 {
		d.V2Header, err = readHeader(r)
		if err != nil {
			return d, fmt.Errorf("read v2 header: %w", err)
		}
		d.V2Data, err = readBlock(r, d.V2Header, 8)
		if err != nil {
			return d, fmt.Errorf("read v2 data block: %w", err)
		}
		d.V2Footer, err = readFooter(r)
		if err != nil {
			return d, fmt.Errorf("read footer: %w", err)
		}
	}

	return d, nil
}

// DecodeData reads the TZif Data from the given reader.
func DecodeData(r io.Reader) (Data, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Data{}, err
	}
	return Decode(b)
}

// Build lays out f as a TZif file of f.Version. For version 2+ the 32-bit
// block carries only the transitions representable in 32 bits.
func Build(f *File) (Data, error) {
	if len(f.Types) == 0 {
		return Data{}, malformedf("no local time types")
	}
	if f.Version == V1 && f.TZString != "" {
		return Data{}, malformedf("version 1 files cannot carry a TZ string")
	}

	full := DataBlock{
		TransitionTimes:     make([]int64, len(f.Transitions)),
		TransitionTypes:     make([]uint8, len(f.Transitions)),
		LocalTimeTypeRecord: f.Types,
		TimeZoneDesignation: f.Designations,
	}
	var short DataBlock
	short.LocalTimeTypeRecord = f.Types
	short.TimeZoneDesignation = f.Designations
	for i, t := range f.Transitions {
		full.TransitionTimes[i] = t.At
		full.TransitionTypes[i] = t.Type
		if t.At >= math.MinInt32 && t.At <= math.MaxInt32 {
			short.TransitionTimes = append(short.TransitionTimes, t.At)
			short.TransitionTypes = append(short.TransitionTypes, t.Type)
		}
	}

	if f.Version == V1 {
		if len(short.TransitionTimes) != len(full.TransitionTimes) {
			return Data{}, malformedf("transition outside the 32-bit range in a version 1 file")
		}
		return Data{Version: V1, V1Header: full.Header(V1), V1Data: full}, nil
	}
	return Data{
		Version:  f.Version,
		V1Header: short.Header(f.Version),
		V1Data:   short,
		V2Header: full.Header(f.Version),
		V2Data:   full,
		V2Footer: Footer{TZString: []byte(f.TZString)},
	}, nil
}
