package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/protocol"
)

func newSkuDetailsCmd(app *app) *cobra.Command {
	var (
		account    string
		pkgName    string
		apiVersion int
		skuType    string
	)

	cmd := &cobra.Command{
		Use:   "sku-details <sku>...",
		Short: "Fetch catalog details for one or more skus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := app.billing.GetSkuDetails(cmd.Context(), application.SkuDetailsCall{
				Account:     account,
				PackageName: pkgName,
				Params: protocol.SkuDetailsParams{
					APIVersion: apiVersion,
					SkuType:    domain.SkuType(skuType),
					SkuPackage: pkgName,
					SkuIDs:     args,
				},
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account identifier")
	cmd.Flags().StringVar(&pkgName, "package", "", "calling application package name")
	cmd.Flags().IntVar(&apiVersion, "api", domain.ExtraParamsMinAPIVersion, "billing API version")
	cmd.Flags().StringVar(&skuType, "type", string(domain.SkuTypeInApp), "sku type")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}
