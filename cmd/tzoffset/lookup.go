package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ngrash/tzoffset/tzrules"
)

func newZonesCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "List the available zone ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := a.db.AvailableIDs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				if strings.HasPrefix(id, prefix) {
					fmt.Fprintln(out, id)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list ids starting with prefix")
	return cmd
}

func newOffsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "offset <zone> [instant]",
		Short: "Print the offset of a zone at an RFC 3339 instant, now by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if len(args) == 2 {
				var err error
				if at, err = time.Parse(time.RFC3339Nano, args[1]); err != nil {
					return fmt.Errorf("parse instant: %w", err)
				}
			}
			o, err := a.db.OffsetAt(args[0], at)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), o)
			return nil
		},
	}
}

func newLocalCmd(a *app) *cobra.Command {
	var prefer string
	cmd := &cobra.Command{
		Use:   "local <zone> <datetime>",
		Short: "Classify a local date-time and resolve it to an instant",
		Long: `Classify a local date-time as regular, in a gap or in an overlap, and
resolve it to an instant. Gaps move the date-time forward by the length of the
gap. In overlaps --prefer picks one of the two offsets; the earlier instant is
used otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			zone := args[0]
			d, err := tzrules.ParseLocal(args[1])
			if err != nil {
				return err
			}
			var preferred *tzrules.Offset
			if prefer != "" {
				o, err := tzrules.ParseOffset(prefer)
				if err != nil {
					return err
				}
				preferred = &o
			}
			info, err := a.db.InfoAt(zone, d)
			if err != nil {
				return err
			}
			t, err := a.db.AtLocal(zone, d, preferred)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, info)
			fmt.Fprintln(out, t.Format(time.RFC3339Nano))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefer, "prefer", "", "offset to use in an overlap, e.g. +01:00")
	return cmd
}

func newTransitionsCmd(a *app) *cobra.Command {
	var (
		from  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "transitions <zone>",
		Short: "List the transitions of a zone after an instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if from != "" {
				var err error
				if at, err = time.Parse(time.RFC3339Nano, from); err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
			}
			changes, err := a.db.Transitions(args[0], at, count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range changes {
				fmt.Fprintf(out, "%s  %s -> %s\n", c.At.Format(time.RFC3339), c.Before, c.After)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "RFC 3339 instant to start after (default now)")
	cmd.Flags().IntVar(&count, "count", 10, "maximum number of transitions")
	return cmd
}
