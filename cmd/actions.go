package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghinbox/internal/store"
)

// threadAction is a store operation applied to one thread.
type threadAction func(s *store.Store, ctx context.Context, id string) error

// NewCmdRead creates the read command.
func NewCmdRead() *cobra.Command {
	return newActionCmd(
		"read <id>...",
		"Mark threads as read on GitHub and close them locally",
		"Marked read",
		(*store.Store).MarkAsRead,
	)
}

// NewCmdStage creates the stage command.
func NewCmdStage() *cobra.Command {
	return newActionCmd(
		"stage <id>...",
		"Move queued threads to the staged list",
		"Staged",
		(*store.Store).StageThread,
	)
}

// NewCmdRestore creates the restore command.
func NewCmdRestore() *cobra.Command {
	return newActionCmd(
		"restore <id>...",
		"Move staged threads back to the queue",
		"Restored",
		(*store.Store).RestoreThread,
	)
}

func newActionCmd(use, short, verb string, action threadAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args, verb, action)
		},
	}
}

// runAction applies action to every id. One failing id does not stop the
// others; all failures are returned together.
func runAction(cmd *cobra.Command, ids []string, verb string, action threadAction) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	var errs []error
	for _, id := range ids {
		if err := action(rt.store, ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, id)
	}
	return errors.Join(errs...)
}
