package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/protocol"
)

func newHistoryCmd(app *app) *cobra.Command {
	var (
		account      string
		pkgName      string
		apiVersion   int
		skuType      string
		continuation string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Fetch the purchase history for an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := app.billing.GetPurchaseHistory(cmd.Context(), application.PurchaseHistoryCall{
				Account:     account,
				PackageName: pkgName,
				Params: protocol.PurchaseHistoryParams{
					APIVersion:        apiVersion,
					SkuType:           domain.SkuType(skuType),
					ContinuationToken: continuation,
				},
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(history)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account identifier")
	cmd.Flags().StringVar(&pkgName, "package", "", "calling application package name")
	cmd.Flags().IntVar(&apiVersion, "api", domain.ExtraParamsMinAPIVersion, "billing API version")
	cmd.Flags().StringVar(&skuType, "type", string(domain.SkuTypeInApp), "sku type")
	cmd.Flags().StringVar(&continuation, "continuation", "", "continuation token from a previous page")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}
