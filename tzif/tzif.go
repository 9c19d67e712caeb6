// Package tzif implements the TZif file format according to RFC 8536.
// https://datatracker.ietf.org/doc/html/rfc8536
package tzif

import (
	"encoding/binary"
	"fmt"
	"io"
)

// NOTE: All multi-octet integer values are stored in network octet order
// (big-endian). Signed integer values use two's complement.
var order = binary.BigEndian

// Version represents the version of a TZif file.
// Version 1 files store 32-bit time values only. Version 2 and later files
// repeat the header and data block with 64-bit time values and end with a
// footer holding a POSIX TZ string.
type Version byte

func (v Version) String() string {
	switch v {
	case V1:
		return "V1 (0x00)"
	case V2:
		return "V2 (0x32)"
	case V3:
		return "V3 (0x33)"
	case V4:
		return "V4 (0x34)"
	default:
		return fmt.Sprintf("<undefined version (%d)>", v)
	}
}

func (v Version) valid() bool {
	return v == V1 || v == V2 || v == V3 || v == V4
}

const (
	V1 Version = 0x00
	V2 Version = 0x32 // '2'
	// V3 allows the TZ string extensions of RFC 8536 section 3.3.1:
	// hours in transition times may range from -167 to 167 and DST may be
	// in effect all year.
	V3 Version = 0x33 // '3'
	// V4 is described in tzfile(5) and only changes leap second semantics,
	// which this package does not interpret.
	V4 Version = 0x34 // '4'
)

// Magic is the four-octet ASCII sequence "TZif" that starts every header.
var Magic = [4]byte{'T', 'Z', 'i', 'f'}

// headerSize is the encoded size of a header including the magic.
const headerSize = 4 + 1 + 15 + 6*4

// Header is the header of a TZif file.
//
//	+---------------+---+
//	|  magic    (4) |ver|
//	+---------------+---+---------------------------------------+
//	|           [unused - reserved for future use] (15)         |
//	+---------------+---------------+---------------+-----------+
//	|  isutcnt  (4) |  isstdcnt (4) |  leapcnt  (4) |
//	+---------------+---------------+---------------+
//	|  timecnt  (4) |  typecnt  (4) |  charcnt  (4) |
//	+---------------+---------------+---------------+
type Header struct {
	Version  Version
	Reserved [15]byte

	// Isutcnt is the number of UT/local indicators, zero or Typecnt.
	Isutcnt uint32
	// Isstdcnt is the number of standard/wall indicators, zero or Typecnt.
	Isstdcnt uint32
	// Leapcnt is the number of leap second records.
	Leapcnt uint32
	// Timecnt is the number of transition times.
	Timecnt uint32
	// Typecnt is the number of local time type records. Never zero.
	Typecnt uint32
	// Charcnt is the size of the designation table including the final NUL.
	Charcnt uint32
}

// Write writes the Header to w.
func (h Header) Write(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	return binary.Write(w, order, h)
}

// blockSize returns the encoded size of the data block described by h when
// time values are timeSize octets wide.
func (h Header) blockSize(timeSize int) int {
	return int(h.Timecnt)*timeSize +
		int(h.Timecnt) +
		int(h.Typecnt)*6 +
		int(h.Charcnt) +
		int(h.Leapcnt)*(timeSize+4) +
		int(h.Isstdcnt) +
		int(h.Isutcnt)
}

// DataBlock is a TZif data block. The same structure serves the 32-bit
// version 1 block and the 64-bit version 2+ block; only the width of
// transition and leap second times differs when encoded.
//
//	+---------------------------------------------------------+
//	|  transition times          (timecnt x TIME_SIZE)        |
//	+---------------------------------------------------------+
//	|  transition types          (timecnt)                    |
//	+---------------------------------------------------------+
//	|  local time type records   (typecnt x 6)                |
//	+---------------------------------------------------------+
//	|  time zone designations    (charcnt)                    |
//	+---------------------------------------------------------+
//	|  leap-second records       (leapcnt x (TIME_SIZE + 4))  |
//	+---------------------------------------------------------+
//	|  standard/wall indicators  (isstdcnt)                   |
//	+---------------------------------------------------------+
//	|  UT/local indicators       (isutcnt)                    |
//	+---------------------------------------------------------+
type DataBlock struct {
	// TransitionTimes are unix times in strictly ascending order.
	TransitionTimes []int64
	// TransitionTypes index LocalTimeTypeRecord, one per transition time.
	TransitionTypes []uint8
	// LocalTimeTypeRecord lists the local time types of the zone.
	LocalTimeTypeRecord []LocalTimeTypeRecord
	// TimeZoneDesignation holds NUL-terminated abbreviations. Two
	// designations may overlap if one is a suffix of the other.
	TimeZoneDesignation []byte
	// LeapSecondRecords are decoded for completeness only.
	LeapSecondRecords []LeapSecondRecord
	// StandardWallIndicators and UTLocalIndicators describe how the
	// transition times were originally specified. They are informational.
	StandardWallIndicators []bool
	UTLocalIndicators      []bool
}

// Header returns a header of the given version whose counts describe b.
func (b DataBlock) Header(v Version) Header {
	return Header{
		Version:  v,
		Isutcnt:  uint32(len(b.UTLocalIndicators)),
		Isstdcnt: uint32(len(b.StandardWallIndicators)),
		Leapcnt:  uint32(len(b.LeapSecondRecords)),
		Timecnt:  uint32(len(b.TransitionTimes)),
		Typecnt:  uint32(len(b.LocalTimeTypeRecord)),
		Charcnt:  uint32(len(b.TimeZoneDesignation)),
	}
}

// Write writes the block with time values timeSize (4 or 8) octets wide.
func (b DataBlock) Write(w io.Writer, timeSize int) error {
	if timeSize != 4 && timeSize != 8 {
		return fmt.Errorf("invalid time size %d", timeSize)
	}
	writeTime := func(t int64) error {
		if timeSize == 4 {
			if int64(int32(t)) != t {
				return fmt.Errorf("time %d does not fit 32 bits", t)
			}
			return binary.Write(w, order, int32(t))
		}
		return binary.Write(w, order, t)
	}
	for _, t := range b.TransitionTimes {
		if err := writeTime(t); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, b.TransitionTypes); err != nil {
		return err
	}
	for _, r := range b.LocalTimeTypeRecord {
		if err := r.Write(w); err != nil {
			return err
		}
	}
	if _, err := w.Write(b.TimeZoneDesignation); err != nil {
		return err
	}
	for _, r := range b.LeapSecondRecords {
		if err := writeTime(r.Occur); err != nil {
			return err
		}
		if err := binary.Write(w, order, r.Corr); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, b.StandardWallIndicators); err != nil {
		return err
	}
	return binary.Write(w, order, b.UTLocalIndicators)
}

// LeapSecondRecord is a leap second correction.
//
//	+---------------+---------------+
//	|  occur (4|8)  |  corr (4)     |
//	+---------------+---------------+
type LeapSecondRecord struct {
	Occur int64
	Corr  int32
}

// LocalTimeTypeRecord represents a local time type record.
//
//	+---------------+---+---+
//	|  utoff (4)    |dst|idx|
//	+---------------+---+---+
type LocalTimeTypeRecord struct {
	// Utoff is the number of seconds to be added to UT to get local time.
	Utoff int32
	// Dst reports whether the type is daylight saving time.
	Dst bool
	// Idx is an index into the designation table.
	Idx uint8
}

func (r LocalTimeTypeRecord) Write(w io.Writer) error {
	if err := binary.Write(w, order, r.Utoff); err != nil {
		return err
	}
	if err := binary.Write(w, order, r.Dst); err != nil {
		return err
	}
	return binary.Write(w, order, r.Idx)
}

// Footer represents the footer of a version 2+ TZif file.
//
//	+---+--------------------+---+
//	| NL|  TZ string (0...)  |NL |
//	+---+--------------------+---+
type Footer struct {
	// TZString is a POSIX TZ string extrapolating local time changes after
	// the last transition. It is empty when no such rule is known.
	TZString []byte
}

var asciiNewLine = byte(0x0A)

func (f Footer) Write(w io.Writer) error {
	if _, err := w.Write([]byte{asciiNewLine}); err != nil {
		return err
	}
	if _, err := w.Write(f.TZString); err != nil {
		return err
	}
	_, err := w.Write([]byte{asciiNewLine})
	return err
}
