package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/metrics"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/stream"
)

// referenceAttempts bounds reference-code regeneration. A v4 UUID collision
// is astronomically rare; the loop exists because the store enforces
// uniqueness as a last line of defense and we must not fail the whole
// transfer over it.
const referenceAttempts = 3

// TransferParams describes one atomic money movement handed to the store.
// Either wallet id may be empty for one-sided movements (deposit,
// withdrawal), never both.
type TransferParams struct {
	SenderWalletID   string
	ReceiverWalletID string
	BeneficiaryID    string
	Amount           decimal.Decimal
	Currency         string
	Type             string
	ReferenceCode    string
	Description      string
}

type WalletStore interface {
	GetOne(id string) (*models.Wallet, bool, error)
	FindActiveByUserAndCurrency(userID, currency string) (*models.Wallet, bool, error)
}

type TransactionStore interface {
	// PerformTransfer applies the whole movement as one atomic unit: it
	// locks the involved wallet rows in ascending-id order, re-checks
	// balance and activeness under the lock, mutates both balances and
	// inserts the transaction row. On any failure nothing is persisted.
	PerformTransfer(params *TransferParams) (*models.Transaction, error)
}

type UserStore interface {
	GetByEmail(email string) (*models.User, bool, error)
}

type BeneficiaryStore interface {
	FindByUserAndEmail(userID, email string) (*models.Beneficiary, bool, error)
}

type EventProducer interface {
	ProduceMessage(topic, message string) error
}

// Engine orchestrates transfers, deposits and withdrawals. It holds no state
// between calls; all coordination happens inside the store's commit
// boundary, which keeps the design correct across multiple service
// instances sharing one database.
type Engine struct {
	Wallets       WalletStore
	Transactions  TransactionStore
	Users         UserStore
	Beneficiaries BeneficiaryStore
	Audit         *audit.Recorder
	Events        EventProducer
	Metrics       *metrics.Collector
	Logger        *slog.Logger
}

func NewEngine(engine *Engine) *Engine {
	return &Engine{
		Wallets:       engine.Wallets,
		Transactions:  engine.Transactions,
		Users:         engine.Users,
		Beneficiaries: engine.Beneficiaries,
		Audit:         engine.Audit,
		Events:        engine.Events,
		Metrics:       engine.Metrics,
		Logger:        engine.Logger,
	}
}

// Transfer moves amount from the sender wallet to the resolved receiver
// wallet and records a COMPLETED transaction. Validation failures return
// before any commit is attempted; failures inside the commit roll back
// completely, so the sender is never left debited without the receiver
// being credited.
func (e *Engine) Transfer(actor *models.User, senderWalletID string, receiver ReceiverRef, amount decimal.Decimal, description string, meta audit.RequestMeta) (*models.Transaction, error) {
	senderWallet, found, err := e.Wallets.GetOne(senderWalletID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrWalletNotFound
	}

	receiverWallet, beneficiaryID, err := e.resolveReceiver(actor, senderWallet.Currency, receiver)
	if err != nil {
		return nil, err
	}

	intent, err := CheckMovement(actor, senderWallet, receiverWallet, amount, GuardOptions{})
	if err != nil {
		return nil, err
	}

	transaction, err := e.settle(&TransferParams{
		SenderWalletID:   intent.Debit.ID,
		ReceiverWalletID: intent.Credit.ID,
		BeneficiaryID:    beneficiaryID,
		Amount:           intent.Amount,
		Currency:         intent.Debit.Currency,
		Type:             models.TransactionTypeTransfer,
		Description:      description,
	})
	if err != nil {
		return nil, err
	}

	e.finish(actor, transaction, meta)
	return transaction, nil
}

// Deposit credits a wallet without debiting another. Ordinary users may only
// deposit into their own wallets; admins may target any wallet.
func (e *Engine) Deposit(actor *models.User, walletID string, amount decimal.Decimal, description string, meta audit.RequestMeta) (*models.Transaction, error) {
	wallet, found, err := e.Wallets.GetOne(walletID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrWalletNotFound
	}

	if !actor.IsAdmin && wallet.UserID != actor.ID {
		return nil, ErrNotOwned
	}

	intent, err := CheckMovement(actor, nil, wallet, amount, GuardOptions{BypassOwnership: actor.IsAdmin})
	if err != nil {
		return nil, err
	}

	transaction, err := e.settle(&TransferParams{
		ReceiverWalletID: intent.Credit.ID,
		Amount:           intent.Amount,
		Currency:         intent.Credit.Currency,
		Type:             models.TransactionTypeDeposit,
		Description:      description,
	})
	if err != nil {
		return nil, err
	}

	e.finish(actor, transaction, meta)
	return transaction, nil
}

// Withdraw debits a wallet without crediting another.
func (e *Engine) Withdraw(actor *models.User, walletID string, amount decimal.Decimal, description string, meta audit.RequestMeta) (*models.Transaction, error) {
	wallet, found, err := e.Wallets.GetOne(walletID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrWalletNotFound
	}

	intent, err := CheckMovement(actor, wallet, nil, amount, GuardOptions{})
	if err != nil {
		return nil, err
	}

	transaction, err := e.settle(&TransferParams{
		SenderWalletID: intent.Debit.ID,
		Amount:         intent.Amount,
		Currency:       intent.Debit.Currency,
		Type:           models.TransactionTypeWithdrawal,
		Description:    description,
	})
	if err != nil {
		return nil, err
	}

	e.finish(actor, transaction, meta)
	return transaction, nil
}

// resolveReceiver turns a ReceiverRef into a concrete wallet. Email
// references prefer the caller's saved beneficiary wallet when it matches
// the sender currency, then fall back to the recipient user's active wallet
// in that currency.
func (e *Engine) resolveReceiver(actor *models.User, currency string, receiver ReceiverRef) (*models.Wallet, string, error) {
	if receiver.walletID != "" {
		wallet, found, err := e.Wallets.GetOne(receiver.walletID)
		if err != nil {
			return nil, "", err
		}
		if !found {
			return nil, "", ErrRecipientNotFound
		}
		return wallet, "", nil
	}

	if receiver.email == "" {
		return nil, "", ErrRecipientNotFound
	}

	var beneficiaryID string

	beneficiary, found, err := e.Beneficiaries.FindByUserAndEmail(actor.ID, receiver.email)
	if err != nil {
		return nil, "", err
	}
	if found {
		beneficiaryID = beneficiary.ID
		if beneficiary.WalletID.Valid {
			wallet, found, err := e.Wallets.GetOne(beneficiary.WalletID.String)
			if err != nil {
				return nil, "", err
			}
			if found && wallet.IsActive && wallet.Currency == currency {
				return wallet, beneficiaryID, nil
			}
		}
	}

	recipient, found, err := e.Users.GetByEmail(receiver.email)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", ErrRecipientNotFound
	}

	wallet, found, err := e.Wallets.FindActiveByUserAndCurrency(recipient.ID, currency)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", ErrRecipientNotFound
	}

	return wallet, beneficiaryID, nil
}

// settle hands the movement to the store with a freshly generated reference
// code, regenerating the code on the rare collision.
func (e *Engine) settle(params *TransferParams) (*models.Transaction, error) {
	started := time.Now()

	var (
		transaction *models.Transaction
		err         error
	)

	for range referenceAttempts {
		params.ReferenceCode = uuid.NewString()

		transaction, err = e.Transactions.PerformTransfer(params)
		if err == nil || !errors.Is(err, ErrDuplicateReference) {
			break
		}
	}

	if e.Metrics != nil {
		e.Metrics.RecordSettlement(params.Type, time.Since(started), err == nil)
	}

	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// finish runs the post-commit side effects: one audit record, one completed
// event for the dashboard worker. Both are best-effort relative to the
// already-durable business transaction; a failure here is reported but
// never negates the committed result.
func (e *Engine) finish(actor *models.User, transaction *models.Transaction, meta audit.RequestMeta) {
	if e.Audit != nil {
		err := e.Audit.Record(&audit.Entry{
			ActorID:    actor.ID,
			Action:     models.LogActionCreateTransaction,
			EntityType: models.LogEntityTransaction,
			EntityID:   transaction.ID,
			NewValue:   serializeTransaction(transaction),
			Meta:       meta,
		})
		if err != nil && e.Logger != nil {
			e.Logger.Error("audit record failed after commit",
				"transaction_id", transaction.ID, "error", err)
		}
	}

	if e.Events != nil {
		payload, err := json.Marshal(stream.TransactionEvent{
			ID:          transaction.ID,
			Currency:    transaction.Currency,
			Amount:      transaction.Amount,
			Fee:         transaction.Fee,
			Type:        transaction.Type,
			CompletedAt: transaction.CompletedAt.Time,
		})
		if err == nil {
			err = e.Events.ProduceMessage(stream.TransactionCompletedTopic, string(payload))
		}
		if err != nil && e.Logger != nil {
			e.Logger.Error("completed-transaction event failed",
				"transaction_id", transaction.ID, "error", err)
		}
	}
}

func serializeTransaction(transaction *models.Transaction) map[string]any {
	value := map[string]any{
		"id":               transaction.ID,
		"amount":           transaction.Amount.String(),
		"currency":         transaction.Currency,
		"transaction_type": transaction.Type,
		"status":           transaction.Status,
		"reference_code":   transaction.ReferenceCode,
		"fee":              transaction.Fee.String(),
		"created_at":       transaction.CreatedAt,
	}
	if transaction.SenderWalletID.Valid {
		value["sender_wallet_id"] = transaction.SenderWalletID.String
	}
	if transaction.ReceiverWalletID.Valid {
		value["receiver_wallet_id"] = transaction.ReceiverWalletID.String
	}
	if transaction.Description.Valid {
		value["description"] = transaction.Description.String
	}
	if transaction.CompletedAt.Valid {
		value["completed_at"] = transaction.CompletedAt.Time
	}
	return value
}
