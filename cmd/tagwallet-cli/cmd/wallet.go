package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var balanceOpt struct {
	refresh bool
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "show the wallet of --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := userPath("/wallet")
		if err != nil {
			return err
		}

		return call(cmd, newClient().R(), http.MethodGet, path)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "show the balance of --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := userPath("/balance")
		if err != nil {
			return err
		}

		req := newClient().R().SetQueryParam("refresh", strconv.FormatBool(balanceOpt.refresh))
		return call(cmd, req, http.MethodGet, path)
	},
}

var transactionsOpt struct {
	paymentTypes []string
	limit        int
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "list the transactions of --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := userPath("/transactions")
		if err != nil {
			return err
		}

		req := newClient().R().
			SetQueryParamsFromValues(map[string][]string{"payment_type": transactionsOpt.paymentTypes}).
			SetQueryParam("limit", strconv.Itoa(transactionsOpt.limit))
		return call(cmd, req, http.MethodGet, path)
	},
}

var banksCmd = &cobra.Command{
	Use:   "banks [sort_code account_number]",
	Short: "list banks, or resolve an account",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expect no args or sort_code and account_number")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			req := newClient().R().SetQueryParams(map[string]string{
				"sort_code":      args[0],
				"account_number": args[1],
			})
			return call(cmd, req, http.MethodGet, "/banks/resolve")
		}

		return call(cmd, newClient().R(), http.MethodGet, "/banks")
	},
}

func init() {
	balanceCmd.Flags().BoolVar(&balanceOpt.refresh, "refresh", false, "pull the balance from the rail first")
	transactionsCmd.Flags().StringSliceVar(&transactionsOpt.paymentTypes, "payment-type", nil, "INTER_BANK or WALLET_TRANSFER")
	transactionsCmd.Flags().IntVar(&transactionsOpt.limit, "limit", 50, "max transactions")

	rootCmd.AddCommand(walletCmd, balanceCmd, transactionsCmd, banksCmd)
}
