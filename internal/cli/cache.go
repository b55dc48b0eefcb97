package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loglens/backend/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd(g *globals) *cobra.Command {
	var (
		clearAll  bool
		olderThan string
	)
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or trim the summary cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cache.Open(g.cfg.CacheDir)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch {
			case clearAll:
				if err := c.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Cache cleared")
			case olderThan != "":
				age, err := parseAge(olderThan)
				if err != nil {
					return err
				}
				n, err := c.Prune(ctx, age)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d summaries\n", n)
			}

			n, err := c.Len(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d summaries\n", c.Path(), n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove every cached summary")
	cmd.Flags().StringVar(&olderThan, "prune", "", "remove summaries older than this age (e.g. 72h, 30d)")
	return cmd
}

// parseAge accepts Go durations plus a days suffix ("30d").
func parseAge(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return d, nil
}
