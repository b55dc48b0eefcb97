package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/loglens/backend/internal/app"
	"github.com/loglens/backend/internal/services"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(g *globals) *cobra.Command {
	var (
		unique    bool
		summarize bool
		save      bool
		formatID  string
		export    string
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Normalize, summarize and categorize a log file",
		Long: `Runs the full pipeline on FILE (plain, gzip or zstd). With --summarize
every entry is explained by the model at OLLAMA_URL; answers are cached under
CACHE_DIR. --export writes the report as .json, .xlsx or .pdf.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var exportFormat services.ExportFormat
			if export != "" {
				var err error
				if exportFormat, err = services.ParseExportFormat(filepath.Ext(export)); err != nil {
					return err
				}
			}

			raw, err := readRaw(cmd, args[0])
			if err != nil {
				return err
			}

			a, err := app.New(g.cfg, app.Options{
				UseDatabase: save,
				UseLLM:      summarize || g.cfg.DiscoverUnknownFormats,
				UseCache:    summarize,
			})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			report, err := a.Analysis.Analyze(ctx, raw, services.AnalyzeOptions{
				Filename:  filepath.Base(args[0]),
				FormatID:  formatID,
				Unique:    unique,
				Summarize: summarize,
			})
			if err != nil {
				return err
			}

			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			if err := r.Report(report); err != nil {
				return err
			}

			if export != "" {
				f, err := os.Create(export)
				if err != nil {
					return err
				}
				if err := services.NewExportService().Export(f, exportFormat, report); err != nil {
					f.Close()
					return fmt.Errorf("exporting report: %w", err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				cmd.PrintErrf("Report written to %s\n", export)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&unique, "unique", "u", false, "drop repeated entries")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "explain every entry with the model")
	cmd.Flags().BoolVar(&save, "save", false, "store the run in the configured database")
	cmd.Flags().StringVarP(&formatID, "format", "f", "", "skip detection and use this format id")
	cmd.Flags().StringVarP(&export, "export", "e", "", "write the report to this .json, .xlsx or .pdf file")
	return cmd
}
