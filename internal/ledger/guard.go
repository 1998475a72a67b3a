package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/deolamide/wallex/internal/models"
)

// Intent is the validated outcome of a guard check. It carries the wallets
// exactly as they were read, so the commit boundary can re-validate under a
// row lock; the pre-check only exists to fail fast and keep the
// time-of-check/time-of-use window small.
type Intent struct {
	Debit  *models.Wallet // nil for deposits
	Credit *models.Wallet // nil for withdrawals
	Amount decimal.Decimal
}

// GuardOptions tweak ownership checks for privileged flows.
type GuardOptions struct {
	// BypassOwnership is set for admin-initiated deposits, which may target
	// any wallet. It never applies to debits.
	BypassOwnership bool
}

// CheckMovement validates a candidate debit/credit pair without side
// effects. Either wallet may be nil for one-sided movements, but not both.
//
// The checks run in a fixed order so callers get stable failures:
// existence, ownership, activeness, currency, amount, funds.
func CheckMovement(actor *models.User, debit, credit *models.Wallet, amount decimal.Decimal, opts GuardOptions) (*Intent, error) {
	if debit == nil && credit == nil {
		return nil, ErrWalletNotFound
	}

	if debit != nil && !opts.BypassOwnership && debit.UserID != actor.ID {
		return nil, ErrNotOwned
	}

	if debit != nil && !debit.IsActive {
		return nil, ErrWalletInactive
	}
	if credit != nil && !credit.IsActive {
		return nil, ErrWalletInactive
	}

	if debit != nil && credit != nil {
		if debit.ID == credit.ID {
			return nil, ErrSameWallet
		}
		if debit.Currency != credit.Currency {
			return nil, ErrCurrencyMismatch
		}
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Strict insufficient-funds check, no overdraft. The commit boundary
	// repeats this under a row lock; failing here just avoids a pointless
	// database transaction.
	if debit != nil && debit.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	return &Intent{
		Debit:  debit,
		Credit: credit,
		Amount: amount,
	}, nil
}
