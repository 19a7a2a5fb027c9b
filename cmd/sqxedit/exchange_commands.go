package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"sqxedit/internal/blob"
	"sqxedit/internal/session"
	"sqxedit/internal/tabular"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export <archive>",
		Short: "Write the sample table as a spreadsheet or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen, err := sheetFormat(format, out)
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				sess, _, err := rt.open(c, args[0], "export")
				if err != nil {
					return err
				}
				sheet := tabular.FromTable(sess.Table())

				var buf bytes.Buffer
				switch chosen {
				case tabular.FormatXLSX:
					err = tabular.WriteXLSX(&buf, sheet)
				default:
					err = tabular.WriteJSON(&buf, sheet)
				}
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}

				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				dst, err := rt.resolve(c, out)
				if err != nil {
					return err
				}
				if _, err := rt.write(c, dst, buf.Bytes()); err != nil {
					return err
				}
				newStatusPrinter(cmd.OutOrStdout()).line("Exported", statusOK,
					fmt.Sprintf("%d rows to %s", len(sheet.Rows), dst))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "xlsx or json (default: from --out extension)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination file or s3:// location (default stdout)")
	return cmd
}

// sheetFormat picks the explicit format, falling back to the extension of
// name and finally to JSON.
func sheetFormat(explicit, name string) (tabular.Format, error) {
	if strings.TrimSpace(explicit) != "" {
		return tabular.ParseFormat(explicit)
	}
	if ext := path.Ext(name); ext != "" {
		return tabular.ParseFormat(ext)
	}
	return tabular.FormatJSON, nil
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var format string

	cmd := &cobra.Command{
		Use:   "import <archive> <sheet>",
		Short: "Replace the sample table from an exported spreadsheet or JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen, err := sheetFormat(format, args[1])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				src, err := rt.resolve(c, args[1])
				if err != nil {
					return err
				}
				data, err := rt.read(c, src)
				if err != nil {
					return err
				}
				var sheet tabular.Sheet
				if chosen == tabular.FormatXLSX {
					sheet, err = tabular.ReadXLSX(data)
				} else {
					sheet, err = tabular.ReadJSON(data)
				}
				if err != nil {
					return fmt.Errorf("read %s: %w", src, err)
				}
				return rt.edit(c, cmd, args[0], "import", flags, func(sess *session.Session) error {
					next, err := tabular.Apply(sess.Table(), sheet)
					if err != nil {
						return err
					}
					return sess.Replace(next)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "xlsx or json (default: from the sheet extension)")
	flags.register(cmd)
	return cmd
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "new <archive>",
		Short: "Create an empty sequence container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				dst, err := rt.resolve(c, args[0])
				if err != nil {
					return err
				}
				if !overwrite {
					_, err := dst.store.Head(c, dst.loc.Key)
					switch {
					case err == nil:
						return fmt.Errorf("%s already exists (use --overwrite to replace it)", dst)
					case !errors.Is(err, blob.ErrNotFound):
						return fmt.Errorf("check %s: %w", dst, err)
					}
				}
				sess, err := session.NewBlank(c, rt.sessionOptions("", dst.String(), "new"))
				if err != nil {
					return err
				}
				return rt.commit(c, cmd, sess, dst)
			})
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing archive")
	return cmd
}
