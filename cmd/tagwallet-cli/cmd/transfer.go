package cmd

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var transferOpt struct {
	reference     string
	amount        int64
	narration     string
	accountNumber string
	sortCode      string
	tag           string
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "send money from --user to a bank account (--account --sort-code) or a tag (--tag)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if transferOpt.reference == "" {
			transferOpt.reference = "TRF-" + uuid.NewString()
		}

		body := map[string]any{
			"reference": transferOpt.reference,
			"amount":    transferOpt.amount,
			"narration": transferOpt.narration,
		}

		suffix := "/transfers/bank"
		if transferOpt.tag != "" {
			suffix = "/transfers/tag"
			body["tag"] = transferOpt.tag
		} else {
			body["account_number"] = transferOpt.accountNumber
			body["sort_code"] = transferOpt.sortCode
		}

		path, err := userPath(suffix)
		if err != nil {
			return err
		}

		cmd.Println("reference:", transferOpt.reference)
		return call(cmd, newClient().R().SetBody(body), http.MethodPost, path)
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.Flags().StringVar(&transferOpt.reference, "reference", "", "reference (optional)")
	transferCmd.Flags().Int64Var(&transferOpt.amount, "amount", 0, "amount in minor units")
	transferCmd.Flags().StringVar(&transferOpt.narration, "narration", "", "narration (optional)")
	transferCmd.Flags().StringVar(&transferOpt.accountNumber, "account", "", "destination account number")
	transferCmd.Flags().StringVar(&transferOpt.sortCode, "sort-code", "", "destination bank sort code")
	transferCmd.Flags().StringVar(&transferOpt.tag, "tag", "", "recipient tag")
}
