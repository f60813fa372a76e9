package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opsxjacky/marketdata-loader/internal/config"
	"github.com/opsxjacky/marketdata-loader/internal/data"
	"github.com/opsxjacky/marketdata-loader/internal/frame"
	"github.com/opsxjacky/marketdata-loader/internal/ingest"
	"github.com/opsxjacky/marketdata-loader/internal/logging"
)

type rootOptions struct {
	logLevel string
	stdout   io.Writer
	stderr   io.Writer
}

func (o *rootOptions) logger() zerolog.Logger {
	return logging.NewLogger(o.logLevel, o.stderr)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:          "mdload",
		Short:        "Load and normalize historical market data files",
		SilenceUsage: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newLoadCmd(opts), newRunCmd(opts))
	return cmd
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	var (
		kind        string
		indexColumn string
		format      string
		out         string
		head        int
	)

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Load a single file and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()
			loader, err := data.NewLoader(kind, data.Options{
				IndexColumn: indexColumn,
				Format:      data.ParseTimestampFormat(format),
			})
			if err != nil {
				return err
			}

			start := time.Now()
			f, err := loader.Load(args[0])
			if err != nil {
				logger.Error().Err(err).Str("kind", kind).Str("path", args[0]).Stringer("error_kind", data.KindOf(err)).Msg("load failed")
				return err
			}
			logger.Debug().Str("kind", kind).Int("rows", f.Len()).Dur("elapsed", time.Since(start)).Msg("file loaded")

			if out != "" {
				if err := frame.WriteCSVFile(out, f); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				logger.Info().Str("path", out).Int("rows", f.Len()).Msg("frame exported")
			}
			return printFrame(opts.stdout, f, head)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "source type: "+strings.Join(data.SourceTypes(), ", "))
	cmd.Flags().StringVar(&indexColumn, "index-column", "", "timestamp column (csv_ticks, parquet_ticks)")
	cmd.Flags().StringVar(&format, "format", "iso8601", "timestamp format for csv_ticks: iso8601, inferred, or a layout")
	cmd.Flags().StringVar(&out, "out", "", "write the normalized frame as CSV")
	cmd.Flags().IntVar(&head, "head", 5, "number of rows to print")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load every source of a YAML job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAndValidate(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				opts.logLevel = cfg.GetLogLevel()
			}
			logger := opts.logger()
			logger.Info().Str("config", configPath).Int("sources", len(cfg.Sources)).Int("workers", cfg.GetWorkers()).Msg("starting job")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := ingest.NewRunner(cfg, logger).Run(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tKIND\tROWS\tELAPSED\tOUTPUT")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.Name, r.Kind, r.Frame.Len(), r.Elapsed.Round(time.Microsecond), r.Output)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "job.yaml", "path to job config")
	return cmd
}

// printFrame 打印行数, 列名和前 head 行
func printFrame(w io.Writer, f *frame.Frame, head int) error {
	fmt.Fprintf(w, "rows: %d\n", f.Len())
	if head <= 0 || f.Len() == 0 {
		return nil
	}
	if head > f.Len() {
		head = f.Len()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	columns := f.Columns()
	fmt.Fprintln(tw, f.IndexName()+"\t"+strings.Join(columns, "\t"))
	index := f.Index()
	for r := 0; r < head; r++ {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, index[r].Format(time.RFC3339Nano))
		for _, c := range columns {
			v, err := f.Value(c, r)
			if err != nil {
				return err
			}
			cells = append(cells, frame.FormatValue(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
