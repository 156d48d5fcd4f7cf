package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vending",
		Short:         "In-app purchase engine: query catalogs, run purchase flows, serve the billing API",
		Long:          "vending drives the in-app billing backend protocol from the terminal: look up sku details and purchase history, walk interactive purchase flows, and expose the full billing surface over a local HTTP API.",
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
		newServeCmd(app),
		newSkuDetailsCmd(app),
		newHistoryCmd(app),
		newPurchasesCmd(app),
		newConsumeCmd(app),
		newBuyCmd(app),
	)

	return rootCmd
}
