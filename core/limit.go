package core

import "fmt"

type LimitProfile struct {
	KycTier                int    `json:"kyc_tier"`
	DailyTransactionLimit  int64  `json:"daily_transaction_limit"`
	SingleTransactionLimit int64  `json:"single_transaction_limit"`
	MaxBalance             *int64 `json:"max_balance"` // nil means unlimited
	Description            string `json:"description"`
}

func maxBalance(v int64) *int64 { return &v }

var limitProfiles = map[int]LimitProfile{
	1: {
		KycTier:                1,
		DailyTransactionLimit:  50000,
		SingleTransactionLimit: 20000,
		MaxBalance:             maxBalance(300000),
		Description:            "Tier 1 - Basic Verification",
	},
	2: {
		KycTier:                2,
		DailyTransactionLimit:  200000,
		SingleTransactionLimit: 100000,
		MaxBalance:             maxBalance(500000),
		Description:            "Tier 2 - Enhanced Verification",
	},
	3: {
		KycTier:                3,
		DailyTransactionLimit:  5000000,
		SingleTransactionLimit: 5000000,
		Description:            "Tier 3 - Advanced Verification",
	},
}

// FindLimitProfile returns the static limit profile of a KYC tier.
func FindLimitProfile(tier int) (LimitProfile, error) {
	p, ok := limitProfiles[tier]
	if !ok {
		return LimitProfile{}, fmt.Errorf("no limit profile for tier %d: %w", tier, ErrLimitExceeded)
	}

	return p, nil
}

// Check denies amount when it exceeds the single transaction limit or pushes
// the daily spend over the daily limit.
func (p LimitProfile) Check(amount, dailySpend int64) error {
	if amount > p.SingleTransactionLimit {
		return fmt.Errorf("amount %d above single transaction limit %d: %w", amount, p.SingleTransactionLimit, ErrLimitExceeded)
	}

	if dailySpend+amount > p.DailyTransactionLimit {
		return fmt.Errorf("daily spend %d + %d above daily limit %d: %w", dailySpend, amount, p.DailyTransactionLimit, ErrLimitExceeded)
	}

	return nil
}

// CheckBalance denies a credit that would push balance over MaxBalance.
func (p LimitProfile) CheckBalance(balance, credit int64) error {
	if p.MaxBalance == nil {
		return nil
	}

	if balance+credit > *p.MaxBalance {
		return fmt.Errorf("balance %d + %d above max balance %d: %w", balance, credit, *p.MaxBalance, ErrLimitExceeded)
	}

	return nil
}

// CheckLimit is the limit policy lookup: tier → profile → check.
func CheckLimit(tier int, amount, dailySpend int64) error {
	p, err := FindLimitProfile(tier)
	if err != nil {
		return err
	}

	return p.Check(amount, dailySpend)
}
