package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ngrash/tzoffset/tzif"
	"github.com/ngrash/tzoffset/tzrules"
)

func newInspectCmd(a *app) *cobra.Command {
	var printV1 bool
	cmd := &cobra.Command{
		Use:   "inspect <tzif file>",
		Short: "Print the sections of a TZif file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := afero.ReadFile(a.fs, args[0])
			if err != nil {
				return err
			}
			data, err := tzif.Decode(b)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			out := cmd.OutOrStdout()
			printData(out, data, printV1)
			if err := tzif.Validate(data); err != nil {
				fmt.Fprintln(out, "Problems")
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintln(out, " ", line)
				}
				fmt.Fprintln(out)
			}
			printRules(out, b)
			var buf bytes.Buffer
			if err := data.Encode(&buf); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			if rest := len(b) - buf.Len(); rest > 0 {
				fmt.Fprintln(out, "remaining data:", rest, "bytes")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printV1, "v1", false, "always print v1 header and data")
	return cmd
}

func printData(w io.Writer, d tzif.Data, printV1 bool) {
	if d.Version == tzif.V1 || printV1 {
		printHeader(w, d.V1Header)
		printBlock(w, tzif.V1, d.V1Data)
	}
	if d.Version > tzif.V1 {
		printHeader(w, d.V2Header)
		printBlock(w, d.V2Header.Version, d.V2Data)
		fmt.Fprintln(w, "Footer")
		fmt.Fprintln(w, "  TZString =", string(d.V2Footer.TZString))
		fmt.Fprintln(w)
	}
}

func printHeader(w io.Writer, h tzif.Header) {
	fmt.Fprintln(w, "Header")
	fmt.Fprintln(w, "  version  =", h.Version)
	fmt.Fprintln(w, "  isutcnt  =", h.Isutcnt)
	fmt.Fprintln(w, "  isstdcnt =", h.Isstdcnt)
	fmt.Fprintln(w, "  leapcnt  =", h.Leapcnt)
	fmt.Fprintln(w, "  timecnt  =", h.Timecnt)
	fmt.Fprintln(w, "  typecnt  =", h.Typecnt)
	fmt.Fprintln(w, "  charcnt  =", h.Charcnt)
	fmt.Fprintln(w)
}

func printBlock(w io.Writer, v tzif.Version, b tzif.DataBlock) {
	fmt.Fprintln(w, "Data block", v)
	fmt.Fprintf(w, "  TransitionTimes (%d) = %v\n", len(b.TransitionTimes), b.TransitionTimes)
	fmt.Fprintf(w, "  TransitionTypes (%d) = %v\n", len(b.TransitionTypes), b.TransitionTypes)
	fmt.Fprintf(w, "  LocalTimeTypeRecord (%d) = %+v\n", len(b.LocalTimeTypeRecord), b.LocalTimeTypeRecord)
	fmt.Fprintf(w, "  TimeZoneDesignation (%d) = %q\n", len(b.TimeZoneDesignation), strings.Split(strings.TrimSuffix(string(b.TimeZoneDesignation), "\x00"), "\x00"))
	fmt.Fprintf(w, "  LeapSecondRecords (%d) = %+v\n", len(b.LeapSecondRecords), b.LeapSecondRecords)
	fmt.Fprintf(w, "  StandardWallIndicators (%d) = %v\n", len(b.StandardWallIndicators), b.StandardWallIndicators)
	fmt.Fprintf(w, "  UTLocalIndicators (%d) = %v\n", len(b.UTLocalIndicators), b.UTLocalIndicators)
	fmt.Fprintln(w)
}

// printRules summarizes what offset resolution makes of the file.
func printRules(w io.Writer, b []byte) {
	f, err := tzif.Parse(b)
	if err != nil {
		fmt.Fprintln(w, "Rules")
		fmt.Fprintln(w, "  error =", err)
		fmt.Fprintln(w)
		return
	}
	r, err := tzrules.FromTZif(f)
	fmt.Fprintln(w, "Rules")
	if err != nil {
		fmt.Fprintln(w, "  error =", err)
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, "  initial     =", tzrules.Offset(f.Types[0].Utoff))
	fmt.Fprintln(w, "  transitions =", len(f.Transitions))
	if o, ok := r.FixedOffset(); ok {
		fmt.Fprintln(w, "  fixed       =", o)
	}
	if tail := r.Tail(); tail != nil {
		fmt.Fprintln(w, "  tail        =", tail)
	}
	fmt.Fprintln(w)
}

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <tzif file A> <tzif file B>",
		Short: "Compare the decoded content of two TZif files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data [2]tzif.Data
			for i, name := range args {
				f, err := a.fs.Open(name)
				if err != nil {
					return err
				}
				data[i], err = tzif.DecodeData(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("decode %s: %w", name, err)
				}
			}
			out := cmd.OutOrStdout()
			if diff := cmp.Diff(data[0], data[1]); diff != "" {
				fmt.Fprintln(out, "files are different: -A +B")
				fmt.Fprintln(out, diff)
			} else {
				fmt.Fprintln(out, "files are identical")
			}
			return nil
		},
	}
}
