package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sakenfor/pixsim7-sub009/internal/dispatch"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func newReauthCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reauth <account-id>...",
		Short: "Re-authenticate broken account sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]domain.AccountID, 0, len(args))
			for _, arg := range args {
				ids = append(ids, domain.AccountID(arg))
			}

			resp, err := app.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
				Action:  dispatch.ActionReauthAccounts,
				Payload: dispatch.Payload{AccountIDs: ids},
			})
			if err != nil {
				return err
			}

			failed := 0
			for _, item := range resp.Reauth.Results {
				if item.Success {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", item.AccountID)
					continue
				}
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %s\n", item.AccountID, item.Error)
			}

			if failed > 0 {
				return fmt.Errorf("reauth failed for %d of %d accounts", failed, len(resp.Reauth.Results))
			}

			return nil
		},
	}
}
