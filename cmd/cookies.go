package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sakenfor/pixsim7-sub009/internal/dispatch"
	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
)

func newCookiesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Inspect and move cookie material between contexts",
	}

	cmd.AddCommand(newCookiesExtractCmd(app), newCookiesInjectCmd(app))

	return cmd
}

func newCookiesExtractCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract the cookies visible to a URL, parent domain included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
				Action:  dispatch.ActionExtractCookies,
				Payload: dispatch.Payload{URL: args[0]},
			})
			if err != nil {
				return err
			}

			if asJSON {
				encoded, err := json.MarshalIndent(resp.Cookies, "", "  ")
				if err != nil {
					return fmt.Errorf("encode cookies: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
				return err
			}

			names := make([]string, 0, len(resp.Cookies.Values))
			for name := range resp.Cookies.Values {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, resp.Cookies.Values[name])
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cookie set as JSON")

	return cmd
}

func newCookiesInjectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inject <cookie-domain> <name=value>...",
		Short: "Inject cookies into an execution context",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookieDomain := args[0]

			set := domain.NewCookieSet(cookieDomain)
			for _, pair := range args[1:] {
				name, value, ok := strings.Cut(pair, "=")
				if !ok || name == "" {
					return fmt.Errorf("invalid cookie %q, expected name=value", pair)
				}
				set.Values[name] = value
			}

			_, err := app.dispatcher.Dispatch(cmd.Context(), dispatch.Request{
				Action:  dispatch.ActionInjectCookies,
				Payload: dispatch.Payload{Cookies: set, CookieDomain: cookieDomain},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Injected %d cookies into %s\n", len(set.Values), cookieDomain)
			return nil
		},
	}
}
