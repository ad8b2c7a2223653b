package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/internal/output"
)

// NewCmdSync creates the sync command.
func NewCmdSync(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against the notification feed",
		Long: `Fetches new and changed notifications since the last pass and merges
them into the local inbox. Unchanged feeds cost a single conditional request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json)")
	return cmd
}

func runSync(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	format, err := rt.outputFormat(opts.Format)
	if err != nil {
		return err
	}

	res, err := rt.sync(ctx)
	if err != nil {
		return err
	}
	return output.NewFormatter(format).FormatSync(res, cmd.OutOrStdout())
}
