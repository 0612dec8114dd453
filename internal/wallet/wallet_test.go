package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cap20 = decimal.RequireFromString("0.2")

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSplitStake(t *testing.T) {
	tests := []struct {
		name          string
		available     string
		bonus         string
		amount        string
		wantAvailable string
		wantBonus     string
		wantErr       bool
	}{
		{
			name:      "bonus covers whole stake when spendable is empty",
			available: "0", bonus: "50", amount: "40",
			wantAvailable: "0", wantBonus: "40",
		},
		{
			name:      "bonus capped at fraction when spendable present",
			available: "100", bonus: "50", amount: "60",
			wantAvailable: "48", wantBonus: "12",
		},
		{
			name:      "spendable shortfall topped up from remaining bonus",
			available: "10", bonus: "100", amount: "60",
			wantAvailable: "10", wantBonus: "50",
		},
		{
			name:      "exact total balance accepted",
			available: "30", bonus: "30", amount: "60",
			wantAvailable: "30", wantBonus: "30",
		},
		{
			name:      "no bonus",
			available: "100", bonus: "0", amount: "60",
			wantAvailable: "60", wantBonus: "0",
		},
		{
			name:      "total below stake rejected",
			available: "10", bonus: "20", amount: "60",
			wantErr: true,
		},
		{
			name:      "empty wallet rejected",
			available: "0", bonus: "0", amount: "10",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fromAvailable, fromBonus, err := splitStake(d(tt.available), d(tt.bonus), d(tt.amount), cap20)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsufficientBalance)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.wantAvailable).Equal(fromAvailable), "fromAvailable = %s", fromAvailable)
			assert.True(t, d(tt.wantBonus).Equal(fromBonus), "fromBonus = %s", fromBonus)
		})
	}
}
