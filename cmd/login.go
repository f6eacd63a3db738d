package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sakenfor/pixsim7-sub009/internal/dispatch"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <account-id>",
		Short: "Hand an account's backend session off to its execution context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
				Action:  dispatch.ActionLoginWithAccount,
				Payload: dispatch.Payload{AccountID: domain.AccountID(args[0])},
			})
			if err != nil {
				return err
			}

			result := resp.Login
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d cookies for %s into %s\n",
				result.CookiesMoved, result.AccountID, result.CookieDomain)
			fmt.Fprintf(cmd.OutOrStdout(), "Open: %s\n", result.CanonicalURL)

			if !result.Health.Healthy() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: session health is %s; the handed-off session may need reauth\n",
					result.Health.Outcome)
			}

			return nil
		},
	}
}
