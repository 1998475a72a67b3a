package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/metrics"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/stream"
)

// fakeStore is an in-memory stand-in for the repositories. PerformTransfer
// reproduces the commit boundary's semantics under a mutex: re-validation
// against live state, conditional decrement, all-or-nothing application.
type fakeStore struct {
	mu            sync.Mutex
	wallets       map[string]*models.Wallet
	usersByEmail  map[string]*models.User
	beneficiaries map[string]*models.Beneficiary
	transactions  []*models.Transaction
	seq           int

	// duplicateRefs makes the next n PerformTransfer calls fail with
	// ErrDuplicateReference, exercising the reference retry loop.
	duplicateRefs int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets:       make(map[string]*models.Wallet),
		usersByEmail:  make(map[string]*models.User),
		beneficiaries: make(map[string]*models.Beneficiary),
	}
}

func (s *fakeStore) addWallet(id, userID, currency, balance string, active bool) {
	s.wallets[id] = &models.Wallet{
		ID:       id,
		UserID:   userID,
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
		IsActive: active,
	}
}

func (s *fakeStore) GetOne(id string) (*models.Wallet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, ok := s.wallets[id]
	if !ok {
		return nil, false, nil
	}

	// hand out a snapshot so pre-checks cannot see later mutations, the way a
	// plain SELECT would
	copied := *wallet
	return &copied, true, nil
}

func (s *fakeStore) FindActiveByUserAndCurrency(userID, currency string) (*models.Wallet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, wallet := range s.wallets {
		if wallet.UserID == userID && wallet.Currency == currency && wallet.IsActive {
			copied := *wallet
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (s *fakeStore) GetByEmail(email string) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByEmail[email]
	return user, ok, nil
}

func (s *fakeStore) FindByUserAndEmail(userID, email string) (*models.Beneficiary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	beneficiary, ok := s.beneficiaries[userID+"|"+email]
	return beneficiary, ok, nil
}

func (s *fakeStore) PerformTransfer(params *TransferParams) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duplicateRefs > 0 {
		s.duplicateRefs--
		return nil, ErrDuplicateReference
	}

	var sender, receiver *models.Wallet

	if params.SenderWalletID != "" {
		sender = s.wallets[params.SenderWalletID]
		if sender == nil {
			return nil, ErrWalletNotFound
		}
		if !sender.IsActive {
			return nil, ErrWalletInactive
		}
		if sender.Balance.LessThan(params.Amount) {
			return nil, ErrInsufficientFunds
		}
	}

	if params.ReceiverWalletID != "" {
		receiver = s.wallets[params.ReceiverWalletID]
		if receiver == nil {
			return nil, ErrWalletNotFound
		}
		if !receiver.IsActive {
			return nil, ErrWalletInactive
		}
	}

	if sender != nil {
		sender.Balance = sender.Balance.Sub(params.Amount)
	}
	if receiver != nil {
		receiver.Balance = receiver.Balance.Add(params.Amount)
	}

	s.seq++
	transaction := &models.Transaction{
		ID:            fmt.Sprintf("tx-%d", s.seq),
		Amount:        params.Amount,
		Currency:      params.Currency,
		Type:          params.Type,
		Status:        models.TransactionStatusCompleted,
		ReferenceCode: params.ReferenceCode,
		Fee:           decimal.Zero,
		CreatedAt:     time.Now(),
		CompletedAt:   sql.NullTime{Time: time.Now(), Valid: true},
	}
	if params.SenderWalletID != "" {
		transaction.SenderWalletID = sql.NullString{String: params.SenderWalletID, Valid: true}
	}
	if params.ReceiverWalletID != "" {
		transaction.ReceiverWalletID = sql.NullString{String: params.ReceiverWalletID, Valid: true}
	}
	if params.BeneficiaryID != "" {
		transaction.BeneficiaryID = sql.NullString{String: params.BeneficiaryID, Valid: true}
	}
	if params.Description != "" {
		transaction.Description = sql.NullString{String: params.Description, Valid: true}
	}

	s.transactions = append(s.transactions, transaction)
	return transaction, nil
}

func (s *fakeStore) balance(walletID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[walletID].Balance
}

type fakeLogStore struct {
	mu       sync.Mutex
	inserted []*models.Log
}

func (s *fakeLogStore) Insert(log *models.Log) (*models.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, log)
	return log, nil
}

type fakeEvents struct {
	mu       sync.Mutex
	messages []string
	topics   []string
}

func (e *fakeEvents) ProduceMessage(topic, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
	e.messages = append(e.messages, message)
	return nil
}

func newTestEngine(store *fakeStore) (*Engine, *fakeLogStore, *fakeEvents) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logs := &fakeLogStore{}
	events := &fakeEvents{}

	engine := NewEngine(&Engine{
		Wallets:       store,
		Transactions:  store,
		Users:         store,
		Beneficiaries: store,
		Audit:         audit.New(logs, logger),
		Events:        events,
		Metrics:       metrics.New(),
		Logger:        logger,
	})

	return engine, logs, events
}

func TestEngineTransfer(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "500.00", true)
	store.addWallet("w2", "bob", "USD", "150.00", true)

	engine, logs, events := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	amount := decimal.RequireFromString("150.00")
	transaction, err := engine.Transfer(alice, "w1", ByWalletID("w2"), amount, "rent", audit.RequestMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	require.Equal(t, models.TransactionTypeTransfer, transaction.Type)
	require.Equal(t, models.TransactionStatusCompleted, transaction.Status)
	require.Equal(t, "USD", transaction.Currency)
	require.NotEmpty(t, transaction.ReferenceCode)
	require.True(t, transaction.CompletedAt.Valid)

	require.True(t, store.balance("w1").Equal(decimal.RequireFromString("350.00")))
	require.True(t, store.balance("w2").Equal(decimal.RequireFromString("300.00")))

	// money is conserved across the pair
	total := store.balance("w1").Add(store.balance("w2"))
	require.True(t, total.Equal(decimal.RequireFromString("650.00")))

	// one audit record, attributed to the actor
	require.Len(t, logs.inserted, 1)
	require.Equal(t, models.LogActionCreateTransaction, logs.inserted[0].Action)
	require.Equal(t, models.LogEntityTransaction, logs.inserted[0].EntityType)
	require.Equal(t, "alice", logs.inserted[0].UserID.String)
	require.Equal(t, "10.0.0.1", logs.inserted[0].IPAddress.String)

	// one completed-transaction event
	require.Equal(t, []string{stream.TransactionCompletedTopic}, events.topics)

	var event stream.TransactionEvent
	require.NoError(t, json.Unmarshal([]byte(events.messages[0]), &event))
	require.Equal(t, transaction.ID, event.ID)
	require.True(t, event.Amount.Equal(amount))
}

func TestEngineTransferValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		receiver ReceiverRef
		amount   string
		wantErr  error
	}{
		{"insufficient funds", "w1", ByWalletID("w2"), "600.00", ErrInsufficientFunds},
		{"currency mismatch", "w1", ByWalletID("w3"), "50.00", ErrCurrencyMismatch},
		{"same wallet", "w1", ByWalletID("w1"), "50.00", ErrSameWallet},
		{"unknown sender wallet", "missing", ByWalletID("w2"), "50.00", ErrWalletNotFound},
		{"unknown receiver wallet", "w1", ByWalletID("missing"), "50.00", ErrRecipientNotFound},
		{"zero amount", "w1", ByWalletID("w2"), "0", ErrInvalidAmount},
		{"not owned sender", "w2", ByWalletID("w1"), "10.00", ErrNotOwned},
		{"inactive receiver", "w1", ByWalletID("w4"), "10.00", ErrWalletInactive},
		{"empty receiver ref", "w1", ReceiverRef{}, "10.00", ErrRecipientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addWallet("w1", "alice", "USD", "500.00", true)
			store.addWallet("w2", "bob", "USD", "150.00", true)
			store.addWallet("w3", "bob", "EUR", "0", true)
			store.addWallet("w4", "bob", "USD", "0", false)

			engine, logs, events := newTestEngine(store)
			alice := &models.User{ID: "alice"}

			_, err := engine.Transfer(alice, tt.sender, tt.receiver, decimal.RequireFromString(tt.amount), "", audit.RequestMeta{})
			require.ErrorIs(t, err, tt.wantErr)

			// nothing happened: no balance change, no transaction, no side effects
			require.True(t, store.balance("w1").Equal(decimal.RequireFromString("500.00")))
			require.True(t, store.balance("w2").Equal(decimal.RequireFromString("150.00")))
			require.Empty(t, store.transactions)
			require.Empty(t, logs.inserted)
			require.Empty(t, events.topics)
		})
	}
}

func TestEngineTransferByEmailUsesBeneficiaryWallet(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "500.00", true)
	store.addWallet("w2", "bob", "USD", "0", true)
	store.usersByEmail["bob@example.com"] = &models.User{ID: "bob", Email: "bob@example.com"}
	store.beneficiaries["alice|bob@example.com"] = &models.Beneficiary{
		ID:       "ben-1",
		UserID:   "alice",
		Email:    "bob@example.com",
		WalletID: sql.NullString{String: "w2", Valid: true},
	}

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	transaction, err := engine.Transfer(alice, "w1", ByBeneficiaryEmail("bob@example.com"), decimal.RequireFromString("100.00"), "", audit.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, "w2", transaction.ReceiverWalletID.String)
	require.Equal(t, "ben-1", transaction.BeneficiaryID.String)
	require.True(t, store.balance("w2").Equal(decimal.RequireFromString("100.00")))
}

func TestEngineTransferByEmailFallsBackToRecipientWallet(t *testing.T) {
	// saved beneficiary points at an EUR wallet; a USD transfer must fall
	// back to the recipient's active USD wallet
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "500.00", true)
	store.addWallet("w2", "bob", "EUR", "0", true)
	store.addWallet("w3", "bob", "USD", "0", true)
	store.usersByEmail["bob@example.com"] = &models.User{ID: "bob", Email: "bob@example.com"}
	store.beneficiaries["alice|bob@example.com"] = &models.Beneficiary{
		ID:       "ben-1",
		UserID:   "alice",
		Email:    "bob@example.com",
		WalletID: sql.NullString{String: "w2", Valid: true},
	}

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	transaction, err := engine.Transfer(alice, "w1", ByBeneficiaryEmail("bob@example.com"), decimal.RequireFromString("100.00"), "", audit.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, "w3", transaction.ReceiverWalletID.String)
	require.True(t, store.balance("w3").Equal(decimal.RequireFromString("100.00")))
	require.True(t, store.balance("w2").Equal(decimal.Zero))
}

func TestEngineTransferByEmailRecipientUnknown(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "500.00", true)

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	_, err := engine.Transfer(alice, "w1", ByBeneficiaryEmail("ghost@example.com"), decimal.RequireFromString("10.00"), "", audit.RequestMeta{})
	require.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestEngineConcurrentTransfersSingleWinner(t *testing.T) {
	// two transfers of 80 race against a balance of 100; exactly one commits
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "100.00", true)
	store.addWallet("w2", "bob", "USD", "0", true)
	store.addWallet("w3", "carol", "USD", "0", true)

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}
	amount := decimal.RequireFromString("80.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i, receiver := range []string{"w2", "w3"} {
		wg.Add(1)
		go func(i int, receiver string) {
			defer wg.Done()
			_, errs[i] = engine.Transfer(alice, "w1", ByWalletID(receiver), amount, "", audit.RequestMeta{})
		}(i, receiver)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrInsufficientFunds)
			failures++
		}
	}
	require.Equal(t, 1, failures, "exactly one of the two transfers must lose the race")

	require.True(t, store.balance("w1").Equal(decimal.RequireFromString("20.00")))
	require.Len(t, store.transactions, 1)

	total := store.balance("w1").Add(store.balance("w2")).Add(store.balance("w3"))
	require.True(t, total.Equal(decimal.RequireFromString("100.00")))
}

func TestEngineDeposit(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "10.00", true)
	store.addWallet("w2", "bob", "USD", "0", true)

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}
	admin := &models.User{ID: "root", IsAdmin: true}

	// own wallet
	transaction, err := engine.Deposit(alice, "w1", decimal.RequireFromString("40.00"), "", audit.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, models.TransactionTypeDeposit, transaction.Type)
	require.False(t, transaction.SenderWalletID.Valid)
	require.True(t, store.balance("w1").Equal(decimal.RequireFromString("50.00")))

	// someone else's wallet is off limits without admin rights
	_, err = engine.Deposit(alice, "w2", decimal.RequireFromString("5.00"), "", audit.RequestMeta{})
	require.ErrorIs(t, err, ErrNotOwned)

	// admins may credit any wallet
	_, err = engine.Deposit(admin, "w2", decimal.RequireFromString("5.00"), "", audit.RequestMeta{})
	require.NoError(t, err)
	require.True(t, store.balance("w2").Equal(decimal.RequireFromString("5.00")))
}

func TestEngineWithdraw(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "100.00", true)

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	transaction, err := engine.Withdraw(alice, "w1", decimal.RequireFromString("30.00"), "", audit.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, models.TransactionTypeWithdrawal, transaction.Type)
	require.False(t, transaction.ReceiverWalletID.Valid)
	require.True(t, store.balance("w1").Equal(decimal.RequireFromString("70.00")))

	_, err = engine.Withdraw(alice, "w1", decimal.RequireFromString("100.00"), "", audit.RequestMeta{})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.True(t, store.balance("w1").Equal(decimal.RequireFromString("70.00")))
}

func TestEngineRetriesDuplicateReference(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "100.00", true)
	store.addWallet("w2", "bob", "USD", "0", true)
	store.duplicateRefs = 2

	engine, _, _ := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	transaction, err := engine.Transfer(alice, "w1", ByWalletID("w2"), decimal.RequireFromString("10.00"), "", audit.RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, transaction.ReferenceCode)
	require.Len(t, store.transactions, 1)
}

func TestEngineGivesUpAfterRepeatedDuplicateReferences(t *testing.T) {
	store := newFakeStore()
	store.addWallet("w1", "alice", "USD", "100.00", true)
	store.addWallet("w2", "bob", "USD", "0", true)
	store.duplicateRefs = referenceAttempts

	engine, _, events := newTestEngine(store)
	alice := &models.User{ID: "alice"}

	_, err := engine.Transfer(alice, "w1", ByWalletID("w2"), decimal.RequireFromString("10.00"), "", audit.RequestMeta{})
	require.ErrorIs(t, err, ErrDuplicateReference)
	require.Empty(t, store.transactions)
	require.Empty(t, events.topics)
}
