package cli

import (
	"github.com/loglens/backend/internal/logformat"
	"github.com/spf13/cobra"
)

func newFormatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List known log formats in detection order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := g.loadCatalog()
			if err != nil {
				return err
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			return r.Formats(catalog.Formats())
		},
	}
}

func newDetectCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE",
		Short: "Print the format of a log file",
		Long:  `Prints the id of the first catalog format whose detect pattern matches FILE, or "unknown". Use - to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args[0])
			if err != nil {
				return err
			}
			catalog, err := g.loadCatalog()
			if err != nil {
				return err
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			return r.Detection(logformat.NewDetector(catalog).Detect(text))
		},
	}
}

func newNormalizeCmd(g *globals) *cobra.Command {
	var (
		unique   bool
		formatID string
	)
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Extract entries from a log file",
		Long: `Detects the format of FILE and extracts one entry per record. Records
that the format's extraction pattern cannot parse are returned as raw text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args[0])
			if err != nil {
				return err
			}
			catalog, err := g.loadCatalog()
			if err != nil {
				return err
			}

			n := logformat.NewNormalizer(catalog)
			var res logformat.Result
			if formatID != "" {
				res, err = n.NormalizeAs(text, formatID)
			} else {
				res, err = n.Normalize(text)
			}
			if err != nil {
				return err
			}
			if unique {
				res.Entries = logformat.Unique(res.Entries)
			}

			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			return r.Result(res)
		},
	}
	cmd.Flags().BoolVarP(&unique, "unique", "u", false, "drop repeated entries")
	cmd.Flags().StringVarP(&formatID, "format", "f", "", "skip detection and use this format id")
	return cmd
}

func newChunkCmd(g *globals) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "chunk FILE",
		Short: "Cut a log file into pieces of at most --size characters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("size") {
				size = g.cfg.ChunkSize
			}
			chunks, err := logformat.Chunk(text, size)
			if err != nil {
				return err
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			return r.Chunks(chunks)
		},
	}
	cmd.Flags().IntVarP(&size, "size", "s", 4000, "maximum chunk length in characters (default CHUNK_SIZE)")
	return cmd
}
