package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
)

func newConsumeCmd(app *app) *cobra.Command {
	var (
		account     string
		pkgName     string
		acknowledge bool
	)

	cmd := &cobra.Command{
		Use:   "consume <purchase-token>",
		Short: "Consume (or acknowledge) a purchase by token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call := application.PurchaseTokenCall{
				Account:       account,
				PackageName:   pkgName,
				PurchaseToken: args[0],
			}

			var (
				bundle *domain.ResultBundle
				err    error
			)
			if acknowledge {
				bundle, err = app.billing.AcknowledgePurchase(cmd.Context(), call)
			} else {
				bundle, err = app.billing.ConsumePurchase(cmd.Context(), call)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bundle.Map())
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account identifier")
	cmd.Flags().StringVar(&pkgName, "package", "", "calling application package name")
	cmd.Flags().BoolVar(&acknowledge, "acknowledge", false, "acknowledge instead of consuming")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}
