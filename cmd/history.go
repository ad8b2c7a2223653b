package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/config"
	"github.com/spiffcs/ghinbox/internal/duration"
	"github.com/spiffcs/ghinbox/internal/history"
	"github.com/spiffcs/ghinbox/internal/output"
)

// NewCmdHistory creates the history command.
func NewCmdHistory(opts *Options) *cobra.Command {
	var limit int
	var since string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts, limit, since)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of passes to show")
	cmd.Flags().StringVarP(&since, "since", "s", "", "Only show passes newer than this (e.g., 2h, 1d, 1w)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json)")
	cmd.AddCommand(newCmdHistoryClear())
	return cmd
}

func newCmdHistoryClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the sync history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := history.New(history.DefaultPath())
			if err != nil {
				return err
			}
			if err := l.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func runHistory(cmd *cobra.Command, opts *Options, limit int, since string) error {
	if limit < 1 {
		return fmt.Errorf("invalid limit %d: must be at least 1", limit)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flag := opts.Format
	if flag == "" {
		flag = cfg.DefaultFormat
	}
	format, err := output.ParseFormat(flag)
	if err != nil {
		return err
	}

	l, err := history.New(history.DefaultPath())
	if err != nil {
		return err
	}
	records := l.Recent(limit)

	if since != "" {
		cutoff, err := duration.Since(time.Now(), since)
		if err != nil {
			return err
		}
		records = slices.DeleteFunc(records, func(r history.Record) bool {
			return r.StartedAt.Before(cutoff)
		})
	}

	return output.NewFormatter(format).FormatHistory(records, cmd.OutOrStdout())
}
