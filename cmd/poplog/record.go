package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/poplog/server/service/record"
	"github.com/hrygo/poplog/server/timezone"
	"github.com/hrygo/poplog/store"
)

// withRecordService opens the store for the duration of fn.
func withRecordService(cmd *cobra.Command, fn func(ctx context.Context, loc *time.Location, svc record.Service) error) error {
	ctx := cmd.Context()
	instanceProfile, storeInstance, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer storeInstance.Close()

	loc, err := instanceProfile.Location()
	if err != nil {
		return err
	}
	return fn(ctx, loc, record.NewService(storeInstance, loc))
}

// readInput reads the file named by args[0], or stdin when it is absent or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", args[0])
	}
	return string(b), nil
}

func printRecords(w io.Writer, records []*store.Record, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range records {
		label := r.Category.Label()
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.UID, timezone.FormatTimeWithTimezone(r.Ts, loc, "2006-01-02 15:04"), label, r.Origin)
	}
	return tw.Flush()
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import a pasted notebook, one record per recognized line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return withRecordService(cmd, func(ctx context.Context, loc *time.Location, svc record.Service) error {
				result, err := svc.Import(ctx, &record.ImportRequest{Text: text})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d records from %d lines (%d skipped), batch %s\n",
					len(result.Records), result.Lines, result.Skipped, result.BatchID)
				return printRecords(out, result.Records, loc)
			})
		},
	}
}

func newAddCmd() *cobra.Command {
	var category int
	cmd := &cobra.Command{
		Use:   "add [line]",
		Short: "Record now, or the time written in line",
		Example: `  poplog add --category 2
  poplog add "晚上七點半"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.TrimSpace(strings.Join(args, " "))
			return withRecordService(cmd, func(ctx context.Context, loc *time.Location, svc record.Service) error {
				var (
					r   *store.Record
					err error
				)
				if line == "" {
					r, err = svc.AddQuick(ctx, &record.QuickRequest{Category: category})
				} else {
					r, err = svc.AddManual(ctx, &record.ManualRequest{Line: line, Category: category})
				}
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), []*store.Record{r}, loc)
			})
		},
	}
	cmd.Flags().IntVarP(&category, "category", "c", 0, "1 hard, 2 ideal, 3 soft, 4 mushy, 5 watery")
	return cmd
}

func newListCmd() *cobra.Command {
	req := &record.ListRequest{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecordService(cmd, func(ctx context.Context, loc *time.Location, svc record.Service) error {
				records, err := svc.List(ctx, req)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), records, loc)
			})
		},
	}
	cmd.Flags().StringVar(&req.Scope, "scope", "all", "all, year or month")
	cmd.Flags().StringVar(&req.Origin, "origin", "", "quick, manual or import")
	cmd.Flags().StringVar(&req.Filter, "filter", "", `filter expression, e.g. "category == 5 && hour >= 18"`)
	cmd.Flags().StringVar(&req.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.To, "to", "", "last date, YYYY-MM-DD")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		hm       string
		category int
	)
	cmd := &cobra.Command{
		Use:   "edit <uid>",
		Short: "Change the time of day or category of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &record.EditRequest{Time: hm}
			if cmd.Flags().Changed("category") {
				req.Category = &category
			}
			return withRecordService(cmd, func(ctx context.Context, loc *time.Location, svc record.Service) error {
				r, err := svc.Edit(ctx, args[0], req)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), []*store.Record{r}, loc)
			})
		},
	}
	cmd.Flags().StringVar(&hm, "time", "", "new time of day, HH:MM")
	cmd.Flags().IntVarP(&category, "category", "c", 0, "new category, 0 clears it")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uid>...",
		Short: "Delete records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecordService(cmd, func(ctx context.Context, _ *time.Location, svc record.Service) error {
				for _, uid := range args {
					if err := svc.Delete(ctx, uid); err != nil {
						return errors.Wrapf(err, "failed to delete %s", uid)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", uid)
				}
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear all records without --yes")
			}
			return withRecordService(cmd, func(ctx context.Context, _ *time.Location, svc record.Service) error {
				return svc.Clear(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting everything")
	return cmd
}

