package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/andreyvit/diff"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sqxedit/internal/archive"
	"sqxedit/internal/faults"
	"sqxedit/internal/sampledoc"
	"sqxedit/internal/sampletable"
	"sqxedit/internal/session"
	"sqxedit/internal/tabular"
)

type entryView struct {
	Name           string `json:"name"`
	Size           uint64 `json:"size"`
	CompressedSize uint64 `json:"compressed_size"`
	Method         string `json:"method"`
	Modified       string `json:"modified,omitempty"`
}

type inspectView struct {
	Archive  string      `json:"archive"`
	Entries  []entryView `json:"entries"`
	Samples  int         `json:"samples"`
	Sidecar  string      `json:"sidecar"`
	Stored   string      `json:"stored_digest,omitempty"`
	Computed string      `json:"computed_digest"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List container entries, sample count and checksum status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				sess, src, err := rt.open(c, args[0], "inspect")
				if err != nil {
					return err
				}
				view := buildInspectView(src.String(), sess)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), view)
				}
				printInspect(cmd, view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func buildInspectView(name string, sess *session.Session) inspectView {
	report := sess.Sidecar()
	view := inspectView{
		Archive:  name,
		Samples:  len(sess.Records()),
		Sidecar:  report.Status.String(),
		Stored:   report.Stored,
		Computed: report.Computed,
	}
	for _, info := range sess.Entries() {
		if info.Dir {
			continue
		}
		entry := entryView{
			Name:           info.Name,
			Size:           info.Size,
			CompressedSize: info.CompressedSize,
			Method:         methodName(info),
		}
		if !info.Modified.IsZero() {
			entry.Modified = info.Modified.Format(time.DateTime)
		}
		view.Entries = append(view.Entries, entry)
	}
	return view
}

func methodName(info archive.Info) string {
	switch {
	case info.UnsupportedCodec:
		return "unsupported"
	case info.Method == 0:
		return "store"
	case info.Method == 8:
		return "deflate"
	default:
		return "method " + strconv.Itoa(int(info.Method))
	}
}

func printInspect(cmd *cobra.Command, view inspectView) {
	out := cmd.OutOrStdout()
	status := newStatusPrinter(out)
	status.section(view.Archive)

	rows := make([][]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		rows = append(rows, []string{
			e.Name,
			humanize.Bytes(e.Size),
			humanize.Bytes(e.CompressedSize),
			e.Method,
			e.Modified,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Entry", "Size", "Compressed", "Method", "Modified"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))

	status.line("Samples", statusInfo, strconv.Itoa(view.Samples))
	status.line("Checksum", sidecarKind(view.Sidecar), view.Sidecar)
}

func sidecarKind(status string) statusKind {
	switch status {
	case session.SidecarValid.String():
		return statusOK
	case session.SidecarMismatch.String():
		return statusError
	default:
		return statusWarn
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <archive>",
		Short: "Print the sample table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				sess, _, err := rt.open(c, args[0], "show")
				if err != nil {
					return err
				}
				table := sess.Table()
				if asJSON {
					return tabular.WriteJSON(cmd.OutOrStdout(), tabular.FromTable(table))
				}
				out := cmd.OutOrStdout()
				if table.Len() == 0 {
					fmt.Fprintln(out, "No samples")
					return nil
				}
				fmt.Fprintln(out, renderSampleTable(table))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON rows keyed by column")
	return cmd
}

func renderSampleTable(table *sampletable.Table) string {
	headers := append([]string{"#"}, sampletable.Titles()...)
	aligns := []columnAlignment{alignRight}
	for _, col := range sampletable.Columns() {
		if col.Kind == sampletable.KindNumber {
			aligns = append(aligns, alignRight)
		} else {
			aligns = append(aligns, alignLeft)
		}
	}
	rows := make([][]string, 0, table.Len())
	for i, row := range table.Rows() {
		rows = append(rows, append([]string{strconv.Itoa(i + 1)}, row.Values()...))
	}
	return renderTable(headers, rows, aligns)
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check the stored checksum against the sample list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				sess, src, err := rt.open(c, args[0], "verify")
				if err != nil {
					return err
				}
				report := sess.Sidecar()
				status := newStatusPrinter(cmd.OutOrStdout())
				switch report.Status {
				case session.SidecarValid:
					status.line("Checksum", statusOK, report.Computed)
					return nil
				case session.SidecarMismatch:
					status.line("Checksum", statusError, fmt.Sprintf("stored %s, computed %s", report.Stored, report.Computed))
					return fmt.Errorf("verify %s: %w", src, faults.ErrChecksumMismatch)
				default:
					status.line("Checksum", statusError, "sidecar unreadable")
					return fmt.Errorf("verify %s: %w", src, report.Err)
				}
			})
		},
	}
}

func newDiffCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <archive>",
		Short: "Show how re-encoding would change the stored sample list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				sess, _, err := rt.open(c, args[0], "diff")
				if err != nil {
					return err
				}
				encoded, err := sampledoc.Encode(sess.Document(), rt.cfg.EncodeOptions())
				if err != nil {
					return err
				}
				stored := string(sess.InputDocument())
				out := cmd.OutOrStdout()
				if stored == string(encoded) {
					fmt.Fprintln(out, "No differences")
					return nil
				}
				fmt.Fprintln(out, diff.LineDiff(stored, string(encoded)))
				return nil
			})
		},
	}
}
