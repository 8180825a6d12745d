package cmd

import (
	"encoding/json"
	"fmt"

	"creditline/handler/views"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the current position and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		agreementService := provideAgreementService(ctx, nil)
		position, err := agreementService.Position(ctx)
		if err != nil {
			return err
		}

		view := views.NewPosition(position, cfg.Agreement.CollateralDecimals)
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
