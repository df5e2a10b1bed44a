package tagpay

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// the rail speaks major currency units with two decimals
const minorExp = 2

func toMajor(amount int64) json.Number {
	return json.Number(decimal.New(amount, -minorExp).StringFixed(minorExp))
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(minorExp).Round(0).IntPart()
}

type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type bankTransferRequest struct {
	Amount        json.Number       `json:"amount"`
	SortCode      string            `json:"sortCode"`
	Narration     string            `json:"narration"`
	AccountNumber string            `json:"accountNumber"`
	CustomerID    string            `json:"customerId"`
	Reference     string            `json:"reference,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type bankTransferResponse struct {
	envelope
	Reference string `json:"reference"`
	SessionID string `json:"sessionId"`
}

type walletToWalletRequest struct {
	FromWalletID string      `json:"fromWalletId"`
	ToWalletID   string      `json:"toWalletId"`
	Amount       json.Number `json:"amount"`
	Reference    string      `json:"reference,omitempty"`
}

type customerToCustomerRequest struct {
	FromCustomerID string      `json:"fromCustomerId"`
	ToCustomerID   string      `json:"toCustomerId"`
	Amount         json.Number `json:"amount"`
	Reference      string      `json:"reference,omitempty"`
}

type bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type banksResponse struct {
	envelope
	Banks []bank `json:"banks"`
}

type accountResponse struct {
	envelope
	Account struct {
		AccountName   string `json:"accountName"`
		AccountNumber string `json:"accountNumber"`
	} `json:"account"`
}

type createWalletRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Address     string `json:"address"`
	Bvn         string `json:"bvn,omitempty"`
	Tier        string `json:"tier"`
}

type createWalletResponse struct {
	envelope
	Wallet struct {
		ID               string `json:"id"`
		WalletID         string `json:"walletId"`
		AccountName      string `json:"accountName"`
		AccountNumber    string `json:"accountNumber"`
		BankCode         string `json:"bankCode"`
		BankName         string `json:"bankName"`
		AccountReference string `json:"accountReference"`
	} `json:"wallet"`
	Customer struct {
		ID string `json:"id"`
	} `json:"customer"`
}

type balanceResponse struct {
	envelope
	Balance struct {
		Balance          decimal.Decimal `json:"balance"`
		AvailableBalance decimal.Decimal `json:"availableBalance"`
		LedgerBalance    decimal.Decimal `json:"ledgerBalance"`
		HoldBalance      decimal.Decimal `json:"holdBalance"`
		Currency         string          `json:"currency"`
	} `json:"balance"`
}

type transaction struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Completed   bool            `json:"completed"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type transactionsResponse struct {
	envelope
	Transactions []transaction `json:"transactions"`
}
