package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/Sakenfor/pixsim7-sub009/internal/adapters/render/status"
	"github.com/Sakenfor/pixsim7-sub009/internal/dispatch"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func newAccountsCmd(app *app) *cobra.Command {
	var (
		provider string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List provider accounts from the directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := app.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
				Action:  dispatch.ActionGetAccounts,
				Payload: dispatch.Payload{Provider: domain.ProviderID(provider)},
			})
			if err != nil {
				return err
			}

			// One-shot CLI: let any background refresh land before exit so
			// the next invocation starts from a fresh snapshot.
			defer app.dispatcher.Wait()

			if asJSON {
				encoded, err := json.MarshalIndent(resp.Accounts, "", "  ")
				if err != nil {
					return fmt.Errorf("encode accounts: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
				return err
			}

			rendered, err := app.renderer(resp.Accounts, app.directory.JwtHealth(), statusadapter.RenderOptions{
				Now:       app.now(),
				WrittenAt: resp.WrittenAt,
				Stale:     resp.Stale,
				Provider:  domain.ProviderID(provider),
			})
			if err != nil {
				return fmt.Errorf("render accounts: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "restrict the listing to one provider")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw account list as JSON")

	return cmd
}
