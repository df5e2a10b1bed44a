package tagpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/pandodao/tag-wallet/core"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL string        `valid:"required"`
	APIKey  string        `valid:"required"`
	Timeout time.Duration `valid:"-"`
	// Rate caps outgoing requests per second, zero means unlimited.
	Rate float64 `valid:"-"`
}

func New(cfg Config) core.SettlementGateway {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &client{
		http:    c,
		limiter: rate.NewLimiter(limit, max(int(cfg.Rate), 1)),
	}
}

type client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

type result interface {
	failure() error
}

func (e *envelope) failure() error {
	if e.Status {
		return nil
	}

	msg := e.Message
	if msg == "" {
		msg = "request rejected"
	}

	return fmt.Errorf("tagpay: %s: %w", msg, core.ErrProvider)
}

// do sends one request. Money-moving calls pass settles=true: any failure that
// leaves the rail's answer unknown is then reported as ErrAmbiguousOutcome.
func (c *client) do(ctx context.Context, method, path string, query map[string]string, body any, out result, settles bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	unknown := core.ErrProvider
	if settles {
		unknown = core.ErrAmbiguousOutcome
	}

	r := c.http.R().SetContext(ctx).SetQueryParams(query)
	if body != nil {
		r.SetBody(body)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("tagpay %s %s: %v: %w", method, path, err, unknown)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("tagpay %s %s: status %d: %w", method, path, resp.StatusCode(), unknown)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		if resp.IsError() {
			return fmt.Errorf("tagpay %s %s: status %d: %w", method, path, resp.StatusCode(), core.ErrProvider)
		}

		return fmt.Errorf("tagpay %s %s: decode response: %v: %w", method, path, err, unknown)
	}

	if resp.IsError() {
		if err := out.failure(); err != nil {
			return err
		}

		return fmt.Errorf("tagpay %s %s: status %d: %w", method, path, resp.StatusCode(), core.ErrProvider)
	}

	return out.failure()
}

func (c *client) TransferToBank(ctx context.Context, input *core.BankTransferInput) (*core.BankTransferResult, error) {
	var resp bankTransferResponse
	if err := c.do(ctx, http.MethodPost, "/transfer/bank/customer", nil, &bankTransferRequest{
		Amount:        toMajor(input.Amount),
		SortCode:      input.SortCode,
		Narration:     input.Narration,
		AccountNumber: input.AccountNumber,
		CustomerID:    input.CustomerID,
		Reference:     input.Reference,
		Metadata:      input.Metadata,
	}, &resp, true); err != nil {
		return nil, err
	}

	reference := resp.Reference
	if reference == "" {
		reference = input.Reference
	}

	return &core.BankTransferResult{
		Status:    resp.Status,
		Reference: reference,
		SessionID: resp.SessionID,
	}, nil
}

func (c *client) TransferWalletToWallet(ctx context.Context, input *core.WalletTransferInput) error {
	var resp envelope
	return c.do(ctx, http.MethodPost, "/transfer/wallet-to-wallet", nil, &walletToWalletRequest{
		FromWalletID: input.FromWalletID,
		ToWalletID:   input.ToWalletID,
		Amount:       toMajor(input.Amount),
		Reference:    input.Reference,
	}, &resp, true)
}

func (c *client) TransferCustomerToCustomer(ctx context.Context, input *core.CustomerTransferInput) error {
	var resp envelope
	return c.do(ctx, http.MethodPost, "/transfer/wallet", nil, &customerToCustomerRequest{
		FromCustomerID: input.FromCustomerID,
		ToCustomerID:   input.ToCustomerID,
		Amount:         toMajor(input.Amount),
		Reference:      input.Reference,
	}, &resp, true)
}

func (c *client) ResolveBankAccount(ctx context.Context, sortCode, accountNumber string) (*core.BankAccount, error) {
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/transfer/account/details", map[string]string{
		"sortCode":      sortCode,
		"accountNumber": accountNumber,
	}, nil, &resp, false); err != nil {
		return nil, err
	}

	return &core.BankAccount{
		AccountName:   resp.Account.AccountName,
		AccountNumber: accountNumber,
		SortCode:      sortCode,
	}, nil
}

func (c *client) ListBanks(ctx context.Context) ([]*core.Bank, error) {
	var resp banksResponse
	if err := c.do(ctx, http.MethodGet, "/transfer/banks", nil, nil, &resp, false); err != nil {
		return nil, err
	}

	banks := make([]*core.Bank, 0, len(resp.Banks))
	for _, b := range resp.Banks {
		banks = append(banks, &core.Bank{Code: b.Code, Name: b.Name})
	}

	return banks, nil
}

func (c *client) CreateExternalAccount(ctx context.Context, profile *core.AccountProfile) (*core.ExternalAccount, error) {
	var resp createWalletResponse
	if err := c.do(ctx, http.MethodPost, "/wallet", nil, &createWalletRequest{
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		PhoneNumber: profile.PhoneNumber,
		Email:       profile.Email,
		DateOfBirth: profile.DateOfBirth,
		Address:     profile.Address,
		Bvn:         profile.Bvn,
		Tier:        profile.Tier,
	}, &resp, false); err != nil {
		return nil, err
	}

	walletID := resp.Wallet.WalletID
	if walletID == "" {
		walletID = resp.Wallet.ID
	}

	return &core.ExternalAccount{
		WalletID:         walletID,
		CustomerID:       resp.Customer.ID,
		AccountName:      resp.Wallet.AccountName,
		AccountNumber:    resp.Wallet.AccountNumber,
		BankCode:         resp.Wallet.BankCode,
		BankName:         resp.Wallet.BankName,
		AccountReference: resp.Wallet.AccountReference,
	}, nil
}

func (c *client) GetWalletBalance(ctx context.Context, walletID string) (*core.RailBalance, error) {
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/wallet/"+walletID+"/balance", nil, nil, &resp, false); err != nil {
		return nil, err
	}

	b := resp.Balance
	return &core.RailBalance{
		Balance:          toMinor(b.Balance),
		LedgerBalance:    toMinor(b.LedgerBalance),
		AvailableBalance: toMinor(b.AvailableBalance),
		HoldBalance:      toMinor(b.HoldBalance),
		Currency:         b.Currency,
	}, nil
}

const (
	historyPerPage  = 100
	historyMaxPages = 50
)

// ListCustomerTransactions walks every page of the customer's history. It fails
// rather than return a partial history.
func (c *client) ListCustomerTransactions(ctx context.Context, customerID string) ([]*core.RailTransaction, error) {
	var txs []*core.RailTransaction
	for page := 1; page <= historyMaxPages; page++ {
		var resp transactionsResponse
		if err := c.do(ctx, http.MethodGet, "/transaction/customer", map[string]string{
			"customerId": customerID,
			"page":       strconv.Itoa(page),
			"perPage":    strconv.Itoa(historyPerPage),
		}, nil, &resp, false); err != nil {
			return nil, err
		}

		for _, t := range resp.Transactions {
			txs = append(txs, &core.RailTransaction{
				ID:          t.ID,
				Reference:   t.Reference,
				Type:        core.TransactionType(t.Type),
				Category:    t.Category,
				Amount:      toMinor(t.Amount),
				Description: t.Description,
				Completed:   t.Completed,
				CreatedAt:   t.CreatedAt.UTC(),
			})
		}

		if len(resp.Transactions) < historyPerPage {
			return txs, nil
		}
	}

	return nil, fmt.Errorf("customer %s history exceeds %d pages", customerID, historyMaxPages)
}
