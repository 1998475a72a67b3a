// Package ledger implements the money-movement core: wallet validation,
// transfer orchestration and the error taxonomy shared with the storage
// layer. Every operation takes the resolved caller identity as an explicit
// argument so the package stays testable without an HTTP request context.
package ledger

import "errors"

var (
	// ErrNotOwned is returned when the caller tries to move money out of a
	// wallet that belongs to someone else.
	ErrNotOwned = errors.New("wallet is not owned by the requesting user")

	ErrWalletNotFound    = errors.New("wallet not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSameWallet        = errors.New("sender and receiver wallets are the same")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCurrencyMismatch  = errors.New("wallet currencies do not match")
	ErrWalletInactive    = errors.New("wallet is not active")

	ErrDuplicateWallet      = errors.New("a wallet for this currency already exists")
	ErrDuplicateBeneficiary = errors.New("beneficiary already exists")

	// ErrDuplicateReference is the storage layer's defense-in-depth signal
	// for a reference-code collision. The engine retries code generation,
	// never the whole transfer.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrStoreConflict surfaces a constraint violation detected only at
	// commit time, e.g. two concurrent requests that both passed
	// application-level validation. The whole unit has been rolled back,
	// so the caller may safely retry the identical request.
	ErrStoreConflict = errors.New("conflicting concurrent update")
)
