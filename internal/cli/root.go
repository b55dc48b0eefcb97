package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/loglens/backend/internal/config"
	"github.com/loglens/backend/internal/ingest"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/logger"
	"github.com/loglens/backend/internal/output"
	"github.com/spf13/cobra"
)

var version = "dev"

// globals are the persistent flags and the state loaded before every command.
type globals struct {
	envFile    string
	outputFmt  string
	jsonOutput bool
	catalog    string
	verbose    bool

	cfg *config.Config
}

// NewRootCmd builds the loglens command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "loglens",
		Short: "LogLens: log format detection and structured extraction",
		Long: `LogLens recognizes common server log formats (apache, nginx, php,
laravel, asterisk, mysql, syslog), extracts structured entries from them and
optionally asks a local model to explain each entry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var files []string
			if g.envFile != "" {
				files = append(files, g.envFile)
			}
			cfg, _, err := config.Load(files...)
			if err != nil {
				return err
			}
			if g.catalog != "" {
				cfg.CatalogFile = g.catalog
			}
			g.cfg = cfg

			level := "WARN"
			if g.verbose {
				level = cfg.LogLevel
			}
			return logger.Initialize(logger.Config{Level: level, File: cfg.LogFile})
		},
	}

	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "load settings from this .env file")
	root.PersistentFlags().StringVarP(&g.outputFmt, "output", "o", "text", "output format: text, json")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "shorthand for --output json")
	root.PersistentFlags().StringVar(&g.catalog, "catalog", "", "YAML format catalog replacing the built-in one")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log at LOG_LEVEL instead of WARN")

	root.AddCommand(
		newFormatsCmd(g),
		newDetectCmd(g),
		newNormalizeCmd(g),
		newChunkCmd(g),
		newAnalyzeCmd(g),
		newCacheCmd(g),
		newTokenCmd(g),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (g *globals) renderer(cmd *cobra.Command) (output.Renderer, error) {
	format := g.outputFmt
	if g.jsonOutput {
		format = "json"
	}
	return output.New(format, cmd.OutOrStdout())
}

func (g *globals) loadCatalog() (*logformat.Catalog, error) {
	if g.cfg.CatalogFile == "" {
		return logformat.DefaultCatalog(), nil
	}
	return logformat.LoadCatalogFile(g.cfg.CatalogFile)
}

// readRaw returns the bytes of path, or of stdin when path is "-".
func readRaw(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// readText returns the decoded text of path, or of stdin when path is "-".
func readText(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		return ingest.ReadAll(cmd.InOrStdin(), ingest.DefaultMaxSize)
	}
	return ingest.ReadFile(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "loglens version %s\n", version)
		},
	}
}
