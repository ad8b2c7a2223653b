package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/internal/credential"
	"github.com/spiffcs/ghinbox/internal/ghclient"
	"github.com/spiffcs/ghinbox/internal/store"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long:  `Display the current GitHub API rate limit status for the core, search and GraphQL APIs.`,
		Args:  cobra.NoArgs,
		RunE:  runRateLimitStatus,
	}
}

func runRateLimitStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	creds := credential.NewStore()
	if creds.Token() == "" {
		return store.ErrUnauthenticated
	}

	client, err := ghclient.NewClient(ctx, creds.Token)
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "GitHub API Rate Limits:")
	fmt.Fprintln(out)
	printRate(out, "Core API:  ", limits.Core)
	printRate(out, "Search API:", limits.Search)
	printRate(out, "GraphQL:   ", limits.GraphQL)
	return nil
}

func printRate(w io.Writer, label string, r *gh.Rate) {
	if r == nil {
		return
	}
	resetIn := max(time.Until(r.Reset.Time).Round(time.Second), 0)
	fmt.Fprintf(w, "%s %d/%d remaining (resets in %s)\n", label, r.Remaining, r.Limit, resetIn)
}
