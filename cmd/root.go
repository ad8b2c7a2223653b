package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "ghinbox",
		Short: "Prioritized GitHub notification inbox",
		Long: `A terminal client for your GitHub notifications. It keeps a local
inbox in sync with the notification feed, scores every thread from the
reasons you were notified, and lets you read, stage and restore threads.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := log.ParseFormat(opts.LogFormat)
			if err != nil {
				return err
			}
			log.Initialize(opts.Verbosity, os.Stderr, format)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "Log format (text, json)")

	// Add list flags to root command so `ghinbox` and `ghinbox list` work identically
	addListFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdList(opts))
	rootCmd.AddCommand(NewCmdSync(opts))
	rootCmd.AddCommand(NewCmdRead())
	rootCmd.AddCommand(NewCmdStage())
	rootCmd.AddCommand(NewCmdRestore())
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdAuth())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdHistory(opts))
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
