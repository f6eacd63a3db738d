package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sakenfor/pixsim7-sub009/internal/dispatch"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func newSyncCmd(app *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh credit balances for every account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dispatch.Response

			err := runSyncSpinner(cmd.Context(), cmd.ErrOrStderr(), "Syncing credits...", func(ctx context.Context) error {
				var dispatchErr error
				resp, dispatchErr = app.dispatcher.Dispatch(ctx, dispatch.Request{
					Action:  dispatch.ActionSyncAllCredits,
					Payload: dispatch.Payload{Force: force},
				})
				return dispatchErr
			})
			if err != nil {
				return err
			}

			if !resp.Sync.Performed {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Sync skipped: throttled or already running.")
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Synced %d/%d accounts (%d failed).\n",
				resp.Sync.Synced, resp.Sync.Total, resp.Sync.Failed)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass the throttle window")
	cmd.AddCommand(newSyncAccountCmd(app))

	return cmd
}

func newSyncAccountCmd(app *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "account <account-id>",
		Short: "Probe and refresh one account's credits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
				Action: dispatch.ActionSyncAccountCredits,
				Payload: dispatch.Payload{
					AccountID: domain.AccountID(args[0]),
					Force:     force,
				},
			})
			if err != nil {
				return err
			}

			probe := resp.Probe
			if probe.Err != nil {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (probe failed: %v)\n", probe.AccountID, probe.Outcome, probe.Err)
				return err
			}

			source := "probed"
			if probe.FromCache {
				source = "cached"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", probe.AccountID, probe.Outcome, source)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "probe even when the cached record is fresh")

	return cmd
}
