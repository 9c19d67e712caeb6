package tzif

import (
	"bytes"
	"fmt"

	"github.com/ngrash/tzoffset/internal/bytereader"
)

// File is the decoded content of a TZif file that matters for offset
// resolution. For version 2+ files it is taken from the 64-bit block.
type File struct {
	Version Version
	// Transitions are sorted by strictly increasing At.
	Transitions []Transition
	// Types is never empty. Types[0] applies before the first transition.
	Types        []LocalTimeTypeRecord
	Designations []byte
	// TZString is the footer rule. Empty means no rule is known.
	TZString string
}

// Transition is a point in time at which local time changes to Types[Type].
type Transition struct {
	At   int64
	Type uint8
}

// Designation returns the abbreviation of the given type, e.g. "CEST".
func (f *File) Designation(t LocalTimeTypeRecord) string {
	if int(t.Idx) >= len(f.Designations) {
		return ""
	}
	s := f.Designations[t.Idx:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// Parse decodes a TZif file. For version 2+ files the 32-bit block is
// skipped and only the 64-bit block and footer are decoded. Version 1 files
// are accepted and their 32-bit times widened.
//
// Errors match ErrTruncated when b ends early and ErrMalformed when the
// content is inconsistent.
func Parse(b []byte) (*File, error) {
	r := bytereader.New(b)
	h, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	version := h.Version
	timeSize := 4
	if version >= V2 {
		if err := r.Skip(h.blockSize(4)); err != nil {
			return nil, fmt.Errorf("skip v1 data block: %w", err)
		}
		if h, err = readHeader(r); err != nil {
			return nil, fmt.Errorf("read v2 header: %w", err)
		}
		if h.Version < V2 {
			return nil, malformedf("v2 header has version %v", h.Version)
		}
		timeSize = 8
	}
	if err := checkCounts(h); err != nil {
		return nil, err
	}

	block, err := readBlock(r, h, timeSize)
	if err != nil {
		return nil, fmt.Errorf("read data block: %w", err)
	}

	f := &File{
		Version:      version,
		Transitions:  make([]Transition, len(block.TransitionTimes)),
		Types:        block.LocalTimeTypeRecord,
		Designations: block.TimeZoneDesignation,
	}
	for i, at := range block.TransitionTimes {
		f.Transitions[i] = Transition{At: at, Type: block.TransitionTypes[i]}
	}
	if timeSize == 8 {
		footer, err := readFooter(r)
		if err != nil {
			return nil, fmt.Errorf("read footer: %w", err)
		}
		f.TZString = string(footer.TZString)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func checkCounts(h Header) error {
	if h.Typecnt == 0 {
		return malformedf("typecnt must not be zero")
	}
	if h.Isstdcnt != 0 && h.Isstdcnt != h.Typecnt {
		return malformedf("isstdcnt (%d) must be 0 or typecnt (%d)", h.Isstdcnt, h.Typecnt)
	}
	if h.Isutcnt != 0 && h.Isutcnt != h.Typecnt {
		return malformedf("isutcnt (%d) must be 0 or typecnt (%d)", h.Isutcnt, h.Typecnt)
	}
	return nil
}

func (f *File) validate() error {
	for i, t := range f.Transitions {
		if i > 0 && t.At <= f.Transitions[i-1].At {
			return malformedf("transition %d at %d does not follow %d", i, t.At, f.Transitions[i-1].At)
		}
		if int(t.Type) >= len(f.Types) {
			return malformedf("transition %d references type %d of %d", i, t.Type, len(f.Types))
		}
	}
	for i, t := range f.Types {
		if int(t.Idx) >= len(f.Designations) {
			return malformedf("type %d designation index %d exceeds charcnt %d", i, t.Idx, len(f.Designations))
		}
	}
	return nil
}

func readHeader(r *bytereader.Reader) (Header, error) {
	var h Header
	magic, err := r.Bytes(len(Magic))
	if err != nil {
		return h, err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return h, malformedf("bad magic %q", magic)
	}
	v, err := r.U8()
	if err != nil {
		return h, err
	}
	h.Version = Version(v)
	if !h.Version.valid() {
		return h, malformedf("unknown version %#x", v)
	}
	reserved, err := r.Bytes(len(h.Reserved))
	if err != nil {
		return h, err
	}
	copy(h.Reserved[:], reserved)
	for _, c := range []*uint32{&h.Isutcnt, &h.Isstdcnt, &h.Leapcnt, &h.Timecnt, &h.Typecnt, &h.Charcnt} {
		if *c, err = r.U32BE(); err != nil {
			return h, err
		}
	}
	return h, nil
}

// readBlock decodes the data block described by h. The remaining length is
// checked up front so corrupt counts cannot cause large allocations.
func readBlock(r *bytereader.Reader, h Header, timeSize int) (DataBlock, error) {
	var b DataBlock
	if need := h.blockSize(timeSize); r.Len() < need {
		return b, fmt.Errorf("need %d bytes, have %d: %w", need, r.Len(), ErrTruncated)
	}
	readTime := func() (int64, error) {
		if timeSize == 4 {
			t, err := r.I32BE()
			return int64(t), err
		}
		return r.I64BE()
	}

	var err error
	b.TransitionTimes = make([]int64, h.Timecnt)
	for i := range b.TransitionTimes {
		if b.TransitionTimes[i], err = readTime(); err != nil {
			return b, err
		}
	}
	types, err := r.Bytes(int(h.Timecnt))
	if err != nil {
		return b, err
	}
	b.TransitionTypes = append([]uint8(nil), types...)

	b.LocalTimeTypeRecord = make([]LocalTimeTypeRecord, h.Typecnt)
	for i := range b.LocalTimeTypeRecord {
		rec := &b.LocalTimeTypeRecord[i]
		if rec.Utoff, err = r.I32BE(); err != nil {
			return b, err
		}
		dst, err := r.U8()
		if err != nil {
			return b, err
		}
		if dst > 1 {
			return b, malformedf("type %d has isdst %d", i, dst)
		}
		rec.Dst = dst == 1
		if rec.Idx, err = r.U8(); err != nil {
			return b, err
		}
	}

	desig, err := r.Bytes(int(h.Charcnt))
	if err != nil {
		return b, err
	}
	b.TimeZoneDesignation = append([]byte(nil), desig...)

	if h.Leapcnt > 0 {
		b.LeapSecondRecords = make([]LeapSecondRecord, h.Leapcnt)
		for i := range b.LeapSecondRecords {
			if b.LeapSecondRecords[i].Occur, err = readTime(); err != nil {
				return b, err
			}
			if b.LeapSecondRecords[i].Corr, err = r.I32BE(); err != nil {
				return b, err
			}
		}
	}
	if b.StandardWallIndicators, err = readIndicators(r, h.Isstdcnt); err != nil {
		return b, err
	}
	if b.UTLocalIndicators, err = readIndicators(r, h.Isutcnt); err != nil {
		return b, err
	}
	return b, nil
}

func readIndicators(r *bytereader.Reader, n uint32) ([]bool, error) {
	if n == 0 {
		return nil, nil
	}
	p, err := r.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i, v := range p {
		out[i] = v != 0
	}
	return out, nil
}

func readFooter(r *bytereader.Reader) (Footer, error) {
	nl, err := r.U8()
	if err != nil {
		return Footer{}, err
	}
	if nl != asciiNewLine {
		return Footer{}, malformedf("footer starts with %#x, want newline", nl)
	}
	rest := r.Rest()
	i := bytes.IndexByte(rest, asciiNewLine)
	if i < 0 {
		return Footer{}, fmt.Errorf("unterminated TZ string: %w", ErrTruncated)
	}
	return Footer{TZString: append([]byte(nil), rest[:i]...)}, nil
}
