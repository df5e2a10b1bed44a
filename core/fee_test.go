package core

import "testing"

func TestTransferFee(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{1, 10},
		{5000, 10},
		{5001, 25},
		{15000, 25},
		{50000, 25},
		{50001, 50},
		{5000000, 50},
	}

	for _, tt := range tests {
		if got := TransferFee(tt.amount); got != tt.want {
			t.Errorf("TransferFee(%d) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}
