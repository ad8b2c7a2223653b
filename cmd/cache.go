package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/internal/cache"
	"github.com/spiffcs/ghinbox/internal/model"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local thread cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Wipe the thread cache and resync from scratch",
		Long: `Removes every cached thread, including staged and closed ones, and
forgets the conditional fetch token. When a token is available the inbox is
rebuilt immediately with a full sync.`,
		Args: cobra.NoArgs,
		RunE: runCacheClear,
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.store.ClearCache(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	counts, err := cache.CountByStatus(ctx, rt.cache)
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	cc := rt.cfg.CacheConfig()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache statistics:\n")
	fmt.Fprintf(out, "  Backend: %s\n", cc.Backend)
	if cc.Path != "" {
		fmt.Fprintf(out, "  Path:    %s\n", cc.Path)
	}
	total := 0
	for _, s := range model.AllStatuses {
		fmt.Fprintf(out, "  %-8s %d\n", s+":", counts[s])
		total += counts[s]
	}
	fmt.Fprintf(out, "  %-8s %d\n", "total:", total)
	return nil
}
