package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/output"
	"github.com/spiffcs/ghinbox/internal/store"
)

// NewCmdList creates the list command.
func NewCmdList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prioritized GitHub notifications (same as root ghinbox)",
		Long: `Syncs the local inbox with your GitHub notifications, then shows one
page of threads with the given status, scored and sorted.

Use --sync=false to show the cached inbox without contacting GitHub.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	addListFlags(cmd, opts)
	return cmd
}

// addListFlags adds the list-specific flags to a command.
func addListFlags(cmd *cobra.Command, opts *Options) {
	addViewFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json)")
	cmd.Flags().BoolVar(&opts.Sync, "sync", opts.Sync, "Sync with GitHub before listing")
}

// addViewFlags adds the flags that build the view query.
func addViewFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.Status, "status", opts.Status, "Show threads with this status (queued, staged, closed)")
	cmd.Flags().StringVar(&opts.Filter, "filter", opts.Filter, "Filter by reason class (all, participating, review_requested, subscribed, commented)")
	cmd.Flags().StringVar(&opts.Sort, "sort", opts.Sort, "Sort by (score, title, repository, type, updated)")
	cmd.Flags().BoolVar(&opts.Descending, "desc", opts.Descending, "Sort in descending order")
	cmd.Flags().StringVar(&opts.Search, "search", "", "Only show threads whose title contains this text")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", opts.Page, "Page number")
}

func runList(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	q, err := opts.Query()
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	format, err := rt.outputFormat(opts.Format)
	if err != nil {
		return err
	}

	if opts.Sync {
		log.Progress("Syncing notifications...")
		res, err := rt.sync(ctx)
		if err != nil {
			log.ProgressClear()
		} else {
			log.ProgressDone()
		}
		switch {
		case errors.Is(err, store.ErrUnauthenticated):
			log.Warn("showing cached notifications", "reason", err)
		case err != nil:
			log.Warn("sync failed, showing cached notifications", "error", err)
		default:
			log.Info("synced", log.Pass(res.PassID), "pages", res.Pages, "created", res.Created,
				"updated", res.Updated, "not_modified", res.NotModified)
		}
	}

	snap, err := rt.store.Snapshot(ctx, q)
	if err != nil {
		return err
	}

	return output.NewFormatter(format).Format(snap, cmd.OutOrStdout())
}
