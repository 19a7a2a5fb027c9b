package main

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sqxedit/internal/faults"
	"sqxedit/internal/lock"
	"sqxedit/internal/logging"
	"sqxedit/internal/sampletable"
	"sqxedit/internal/session"
)

const editedSuffix = "_edited"

// editFlags selects where an edited archive is written.
type editFlags struct {
	out  string
	copy bool
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write the edited archive here instead of in place")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Write <name>_edited.sqx next to the input")
	cmd.MarkFlagsMutuallyExclusive("out", "copy")
}

// editedName derives the copy name for base, e.g. run.sqx -> run_edited.sqx.
func editedName(base string) string {
	ext := path.Ext(base)
	if ext == "" {
		ext = ".sqx"
	}
	return strings.TrimSuffix(base, path.Ext(base)) + editedSuffix + ext
}

func (rt *runtime) destination(ctx context.Context, src target, flags editFlags) (target, error) {
	switch {
	case strings.TrimSpace(flags.out) != "":
		return rt.resolve(ctx, flags.out)
	case flags.copy:
		loc := src.loc.WithBase(editedName(src.loc.Base()))
		return target{store: src.store, loc: loc}, nil
	default:
		return src, nil
	}
}

// runEdit applies fn to one session over source and writes the finalized
// archive. Local destinations are locked for the whole read-edit-write.
func (c *commandContext) runEdit(cmd *cobra.Command, source, action string, flags editFlags, fn func(*session.Session) error) error {
	return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		return rt.edit(ctx, cmd, source, action, flags, fn)
	})
}

func (rt *runtime) edit(ctx context.Context, cmd *cobra.Command, source, action string, flags editFlags, fn func(*session.Session) error) error {
	src, err := rt.resolve(ctx, source)
	if err != nil {
		return err
	}
	dst, err := rt.destination(ctx, src, flags)
	if err != nil {
		return err
	}

	if local, ok := rt.resolver.LocalPath(dst.loc); ok {
		held, err := lock.Acquire(local)
		if err != nil {
			return err
		}
		defer func() {
			if err := held.Release(); err != nil {
				logging.WarnWithContext(rt.logger, "lock release failed", "lock_release_failed",
					logging.String("path", held.Path()),
					logging.Error(err),
				)
			}
		}()
	}

	data, err := rt.read(ctx, src)
	if err != nil {
		return err
	}
	sess, err := session.Open(ctx, data, rt.sessionOptions(src.String(), dst.String(), action))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	if err := fn(sess); err != nil {
		logging.WithContext(sess.Context(ctx), rt.cliLogger()).Debug("edit rejected",
			logging.String("action", action),
			logging.Error(err),
		)
		return err
	}
	return rt.commit(ctx, cmd, sess, dst)
}

// commit finalizes sess and stores the archive at dst.
func (rt *runtime) commit(ctx context.Context, cmd *cobra.Command, sess *session.Session, dst target) error {
	result, err := sess.Finalize(ctx)
	if err != nil {
		return err
	}
	info, err := rt.write(ctx, dst, result.Archive)
	if err != nil {
		return err
	}
	logging.WithContext(sess.Context(ctx), rt.cliLogger()).Info("archive written",
		logging.String(logging.FieldEventType, "archive_written"),
		logging.String("destination", dst.String()),
		logging.Int64("bytes", info.Size),
	)
	status := newStatusPrinter(cmd.OutOrStdout())
	message := fmt.Sprintf("%s (%d samples, %s)", dst, result.Rows, humanize.Bytes(uint64(info.Size)))
	status.line("Saved", statusOK, message)
	if !result.Changed {
		status.line("Document", statusInfo, "unchanged")
	}
	status.line("Checksum", statusOK, result.Digest.Hex())
	return nil
}

// rowIndex converts a 1-based row number into a table index.
func rowIndex(table *sampletable.Table, row int, allowEnd bool) (int, error) {
	limit := table.Len()
	if allowEnd {
		limit++
	}
	if row < 1 || row > limit {
		return 0, faults.Wrap(faults.ErrInvalidEdit, "cli", "row",
			fmt.Sprintf("row %d out of range (1-%d)", row, limit), nil)
	}
	return row - 1, nil
}

// parseAssignment splits "column=value".
func parseAssignment(arg string) (string, string, error) {
	column, value, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(column) == "" {
		return "", "", faults.Wrap(faults.ErrInvalidEdit, "cli", "parse", fmt.Sprintf("expected column=value, got %q", arg), nil)
	}
	return strings.TrimSpace(column), value, nil
}

// parseCellEdit splits "row:column=value".
func parseCellEdit(arg string) (int, string, string, error) {
	rowText, assignment, ok := strings.Cut(arg, ":")
	if !ok {
		return 0, "", "", faults.Wrap(faults.ErrInvalidEdit, "cli", "parse", fmt.Sprintf("expected row:column=value, got %q", arg), nil)
	}
	var row int
	if _, err := fmt.Sscanf(strings.TrimSpace(rowText), "%d", &row); err != nil {
		return 0, "", "", faults.Wrap(faults.ErrInvalidEdit, "cli", "parse", fmt.Sprintf("invalid row in %q", arg), err)
	}
	column, value, err := parseAssignment(assignment)
	if err != nil {
		return 0, "", "", err
	}
	return row, column, value, nil
}

func newEditCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSetCommand(ctx),
		newAddCommand(ctx),
		newRemoveCommand(ctx),
		newMoveCommand(ctx),
		newEditCommand(ctx),
	}
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var row int
	var column, value string

	cmd := &cobra.Command{
		Use:   "set <archive>",
		Short: "Change one cell of the sample table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runEdit(cmd, args[0], "set", flags, func(sess *session.Session) error {
				return sess.Edit(func(t *sampletable.Table) error {
					i, err := rowIndex(t, row, false)
					if err != nil {
						return err
					}
					return t.Set(i, column, value)
				})
			})
		},
	}

	cmd.Flags().IntVar(&row, "row", 0, "Row number (1-based)")
	cmd.Flags().StringVar(&column, "column", "", "Column key or title")
	cmd.Flags().StringVar(&value, "value", "", "New cell value")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("value")
	flags.register(cmd)
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var at int

	cmd := &cobra.Command{
		Use:   "add <archive> [column=value...]",
		Short: "Add a sample row",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row := sampletable.NewRow()
			for _, arg := range args[1:] {
				column, value, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				if err := row.Set(column, value); err != nil {
					return err
				}
			}
			return ctx.runEdit(cmd, args[0], "add", flags, func(sess *session.Session) error {
				return sess.Edit(func(t *sampletable.Table) error {
					if at == 0 {
						t.Append(row)
						return nil
					}
					i, err := rowIndex(t, at, true)
					if err != nil {
						return err
					}
					return t.Insert(i, row)
				})
			})
		},
	}

	cmd.Flags().IntVar(&at, "at", 0, "Insert before this row number instead of appending")
	flags.register(cmd)
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var row int

	cmd := &cobra.Command{
		Use:   "rm <archive>",
		Short: "Remove a sample row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runEdit(cmd, args[0], "rm", flags, func(sess *session.Session) error {
				return sess.Edit(func(t *sampletable.Table) error {
					i, err := rowIndex(t, row, false)
					if err != nil {
						return err
					}
					return t.Delete(i)
				})
			})
		},
	}

	cmd.Flags().IntVar(&row, "row", 0, "Row number (1-based)")
	_ = cmd.MarkFlagRequired("row")
	flags.register(cmd)
	return cmd
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var from, to int

	cmd := &cobra.Command{
		Use:   "mv <archive>",
		Short: "Move a sample row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runEdit(cmd, args[0], "mv", flags, func(sess *session.Session) error {
				return sess.Edit(func(t *sampletable.Table) error {
					src, err := rowIndex(t, from, false)
					if err != nil {
						return err
					}
					dst, err := rowIndex(t, to, false)
					if err != nil {
						return err
					}
					return t.Move(src, dst)
				})
			})
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "Row number to move")
	cmd.Flags().IntVar(&to, "to", 0, "Row number it should end up at")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	flags.register(cmd)
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var cells []string

	cmd := &cobra.Command{
		Use:   "edit <archive> --set row:column=value...",
		Short: "Apply several cell changes in one save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cells) == 0 {
				return errors.New("edit: at least one --set is required")
			}
			return ctx.runEdit(cmd, args[0], "edit", flags, func(sess *session.Session) error {
				return sess.Edit(func(t *sampletable.Table) error {
					for _, cell := range cells {
						row, column, value, err := parseCellEdit(cell)
						if err != nil {
							return err
						}
						i, err := rowIndex(t, row, false)
						if err != nil {
							return err
						}
						if err := t.Set(i, column, value); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().StringArrayVar(&cells, "set", nil, "Cell change as row:column=value (repeatable)")
	flags.register(cmd)
	return cmd
}
