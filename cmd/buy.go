package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/protocol"
)

func newBuyCmd(app *app) *cobra.Command {
	var (
		account    string
		pkgName    string
		skuType    string
		apiVersion int
	)

	cmd := &cobra.Command{
		Use:   "buy <sku>",
		Short: "Walk an interactive purchase flow",
		Long: `Starts a purchase flow and drives it from the terminal.

At each screen, enter one of:
  click              activate the current screen's action
  password <pw>      answer an authentication screen
  resume             report the out-of-band payment method step as done
  cancel             abandon the flow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.flows.StartFlow(cmd.Context(), application.StartFlowParams{
				Account:     account,
				PackageName: pkgName,
				Params: protocol.BuyFlowParams{
					APIVersion: apiVersion,
					SkuType:    domain.SkuType(skuType),
					SKU:        args[0],
				},
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())

			for {
				fmt.Fprintln(out, app.renderFlow(view))
				if view.State == application.FlowStateTerminal {
					return nil
				}

				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					_, err := app.flows.CancelFlow(cmd.Context(), view.Token)
					return err
				}

				verb, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
				switch verb {
				case "click":
					var click *domain.Action
					if view.Screen != nil {
						click = view.Screen.Action
					}
					view, err = app.flows.SubmitClick(cmd.Context(), view.Token, click)
				case "password":
					view, err = app.flows.SubmitPassword(cmd.Context(), view.Token, rest, false)
				case "resume":
					view, err = app.flows.ResumePaymentMethod(cmd.Context(), view.Token)
				case "cancel":
					view, err = app.flows.CancelFlow(cmd.Context(), view.Token)
				case "":
					continue
				default:
					fmt.Fprintf(out, "unknown command %q\n", verb)
					continue
				}
				if err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account identifier")
	cmd.Flags().StringVar(&pkgName, "package", "", "calling application package name")
	cmd.Flags().StringVar(&skuType, "type", string(domain.SkuTypeInApp), "sku type")
	cmd.Flags().IntVar(&apiVersion, "api", domain.ExtraParamsMinAPIVersion, "billing API version")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}
