package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "psync",
		Short:         "psync: keep provider account sessions and credits in sync",
		Long:          "psync talks to the account authority to list provider accounts, refresh credit balances, repair broken sessions, and hand validated sessions off to local execution contexts.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountsCmd(app),
		newSyncCmd(app),
		newReauthCmd(app),
		newLoginCmd(app),
		newCookiesCmd(app),
	)

	return rootCmd
}
