package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deolamide/wallex/internal/models"
)

func testWallet(id, userID, currency, balance string, active bool) *models.Wallet {
	return &models.Wallet{
		ID:       id,
		UserID:   userID,
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
		IsActive: active,
	}
}

func TestCheckMovement(t *testing.T) {
	owner := &models.User{ID: "user-1"}
	stranger := &models.User{ID: "user-2"}

	tests := []struct {
		name    string
		actor   *models.User
		debit   *models.Wallet
		credit  *models.Wallet
		amount  string
		opts    GuardOptions
		wantErr error
	}{
		{
			name:   "valid transfer",
			actor:  owner,
			debit:  testWallet("w1", "user-1", "USD", "500.00", true),
			credit: testWallet("w2", "user-2", "USD", "0", true),
			amount: "150.00",
		},
		{
			name:   "exact balance is allowed",
			actor:  owner,
			debit:  testWallet("w1", "user-1", "USD", "150.00", true),
			credit: testWallet("w2", "user-2", "USD", "0", true),
			amount: "150.00",
		},
		{
			name:    "both wallets missing",
			actor:   owner,
			amount:  "10",
			wantErr: ErrWalletNotFound,
		},
		{
			name:    "debit not owned by actor",
			actor:   stranger,
			debit:   testWallet("w1", "user-1", "USD", "500.00", true),
			credit:  testWallet("w2", "user-2", "USD", "0", true),
			amount:  "10",
			wantErr: ErrNotOwned,
		},
		{
			name:   "ownership bypass for privileged deposit",
			actor:  stranger,
			debit:  testWallet("w1", "user-1", "USD", "500.00", true),
			credit: testWallet("w2", "user-2", "USD", "0", true),
			amount: "10",
			opts:   GuardOptions{BypassOwnership: true},
		},
		{
			name:    "inactive debit wallet",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "500.00", false),
			credit:  testWallet("w2", "user-2", "USD", "0", true),
			amount:  "10",
			wantErr: ErrWalletInactive,
		},
		{
			name:    "inactive credit wallet",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "500.00", true),
			credit:  testWallet("w2", "user-2", "USD", "0", false),
			amount:  "10",
			wantErr: ErrWalletInactive,
		},
		{
			name:    "same wallet on both sides",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "500.00", true),
			credit:  testWallet("w1", "user-1", "USD", "500.00", true),
			amount:  "10",
			wantErr: ErrSameWallet,
		},
		{
			name:    "currency mismatch",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "500.00", true),
			credit:  testWallet("w2", "user-2", "EUR", "0", true),
			amount:  "10",
			wantErr: ErrCurrencyMismatch,
		},
		{
			name:    "zero amount",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "500.00", true),
			credit:  testWallet("w2", "user-2", "USD", "0", true),
			amount:  "0",
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "500.00", true),
			credit:  testWallet("w2", "user-2", "USD", "0", true),
			amount:  "-25",
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "insufficient funds",
			actor:   owner,
			debit:   testWallet("w1", "user-1", "USD", "100.00", true),
			credit:  testWallet("w2", "user-2", "USD", "0", true),
			amount:  "100.01",
			wantErr: ErrInsufficientFunds,
		},
		{
			name:   "deposit has no debit side",
			actor:  owner,
			credit: testWallet("w2", "user-1", "USD", "0", true),
			amount: "50",
		},
		{
			name:   "withdrawal has no credit side",
			actor:  owner,
			debit:  testWallet("w1", "user-1", "USD", "100.00", true),
			amount: "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)

			intent, err := CheckMovement(tt.actor, tt.debit, tt.credit, amount, tt.opts)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, intent)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.debit, intent.Debit)
			require.Equal(t, tt.credit, intent.Credit)
			require.True(t, amount.Equal(intent.Amount))
		})
	}
}

func TestCheckMovementOrderOfFailures(t *testing.T) {
	// an inactive wallet that is also not owned must fail on ownership first
	actor := &models.User{ID: "user-2"}
	debit := testWallet("w1", "user-1", "USD", "0", false)
	credit := testWallet("w2", "user-2", "EUR", "0", true)

	_, err := CheckMovement(actor, debit, credit, decimal.RequireFromString("10"), GuardOptions{})
	require.ErrorIs(t, err, ErrNotOwned)
}
