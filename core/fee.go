package core

// TransferFee returns the charge in minor units for a transfer of amount.
func TransferFee(amount int64) int64 {
	switch {
	case amount <= 5000:
		return 10
	case amount <= 50000:
		return 25
	default:
		return 50
	}
}
