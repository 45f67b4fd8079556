package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/plugin/export"
	"github.com/hrygo/poplog/plugin/notebook"
	"github.com/hrygo/poplog/plugin/sample"
	"github.com/hrygo/poplog/server/service/record"
	"github.com/hrygo/poplog/server/timezone"
)

// profileLocation resolves the configured timezone without opening the store.
func profileLocation() (*time.Location, error) {
	p := &profile.Profile{Timezone: viper.GetString("timezone")}
	p.FromEnv()
	return p.Location()
}

func newParseCmd() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Show how each notebook line is read, without storing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := profileLocation()
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			cursor := notebook.DateOf(time.Now().In(loc))
			if ref != "" {
				t, err := time.ParseInLocation(timezone.DateLayout, ref, loc)
				if err != nil {
					return errors.Wrapf(err, "invalid reference date %q", ref)
				}
				cursor = notebook.DateOf(t)
			}

			parser := notebook.NewParser(loc)
			out := cmd.OutOrStdout()
			found := 0
			lines := notebook.SplitLines(text)
			for _, line := range lines {
				var (
					at time.Time
					ok bool
				)
				cursor, at, ok = parser.ParseLine(line, cursor)
				if !ok {
					fmt.Fprintf(out, "  %-16s  %s\n", "-", line)
					continue
				}
				found++
				fmt.Fprintf(out, "+ %-16s  %s\n", at.Format("2006-01-02 15:04"), line)
			}
			fmt.Fprintf(out, "%d of %d lines have a time\n", found, len(lines))
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "reference date for lines before the first date, YYYY-MM-DD (default today)")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:       "sample <normal|abnormal|over>",
		Short:     "Print a synthetic history; nothing is stored",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(sample.KindNormal), string(sample.KindAbnormal), string(sample.KindOver)},
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := profileLocation()
			if err != nil {
				return err
			}
			kind, err := sample.ParseKind(args[0])
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = rand.Uint64()
			}

			generated, err := sample.NewGenerator(rand.New(rand.NewPCG(seed, seed)), loc).Generate(kind)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s sample: %d records over %d days (%s to %s), seed %d\n",
				generated.Kind, len(generated.Records), generated.Days,
				generated.From.Format(timezone.DateLayout), generated.To.Format(timezone.DateLayout), seed)
			return printRecords(out, generated.Records, loc)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 picks one")
	return cmd
}

func reportFlags(cmd *cobra.Command, req *record.ReportRequest) {
	cmd.Flags().StringVar(&req.Scope, "scope", "all", "all, year or month")
	cmd.Flags().StringVar(&req.Filter, "filter", "", "filter expression")
	cmd.Flags().StringVar(&req.Sample, "sample", "", "report over a synthetic normal, abnormal or over history")
}

func newStatsCmd() *cobra.Command {
	req := &record.ReportRequest{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the weekly report as Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecordService(cmd, func(ctx context.Context, _ *time.Location, svc record.Service) error {
				report, err := svc.Report(ctx, req)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), export.Markdown(report))
				return err
			})
		},
	}
	reportFlags(cmd, req)
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as CSV, an HTML report or a PNG share card",
	}
	cmd.AddCommand(newExportCSVCmd(), newExportReportCmd(), newExportCardCmd())
	return cmd
}

// writeOutput writes to path, or to stdout when path is "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}

func newExportCSVCmd() *cobra.Command {
	var output string
	req := &record.ListRequest{}
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write stored records as date,time,type rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecordService(cmd, func(ctx context.Context, loc *time.Location, svc record.Service) error {
				records, err := svc.List(ctx, req)
				if err != nil {
					return err
				}
				if output == "" {
					output = export.CSVFileName(time.Now().In(loc))
				}
				return writeOutput(cmd, output, func(w io.Writer) error {
					return export.WriteCSV(w, records, loc)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout`)
	cmd.Flags().StringVar(&req.Scope, "scope", "all", "all, year or month")
	cmd.Flags().StringVar(&req.Filter, "filter", "", "filter expression")
	return cmd
}

func newExportReportCmd() *cobra.Command {
	var output string
	req := &record.ReportRequest{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the weekly report as HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecordService(cmd, func(ctx context.Context, _ *time.Location, svc record.Service) error {
				report, err := svc.Report(ctx, req)
				if err != nil {
					return err
				}
				if output == "" {
					output = fmt.Sprintf("poop-report-%s.html", report.AsOf.Format(timezone.DateLayout))
				}
				return writeOutput(cmd, output, func(w io.Writer) error {
					return export.WriteHTML(w, report)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout`)
	reportFlags(cmd, req)
	return cmd
}

func newExportCardCmd() *cobra.Command {
	var output string
	opts := export.CardOptions{}
	req := &record.ReportRequest{}
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Write the share card of the last seven recorded days as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Width < 0 {
				return errors.New("width must not be negative")
			}
			return withRecordService(cmd, func(ctx context.Context, _ *time.Location, svc record.Service) error {
				report, err := svc.Report(ctx, req)
				if err != nil {
					return err
				}
				if output == "" {
					output = export.CardFileName(report.AsOf)
				}
				return writeOutput(cmd, output, func(w io.Writer) error {
					return export.WriteCard(w, report.Days, report.AsOf, opts)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout`)
	cmd.Flags().BoolVar(&opts.Dark, "dark", false, "dark palette")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "resize to this width, keeping the aspect ratio")
	reportFlags(cmd, req)
	return cmd
}
