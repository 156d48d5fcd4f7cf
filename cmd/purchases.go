package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openvending/vending/internal/domain"
)

func newPurchasesCmd(app *app) *cobra.Command {
	var (
		account string
		pkgName string
		skuType string
	)

	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "List locally tracked purchases for an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := app.billing.GetPurchases(account, pkgName, domain.SkuType(skuType))
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
	cmd.Flags().StringVar(&skuType, "type", string(domain.SkuTypeInApp), "sku type")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}
