// Package seeder fills a fresh database with demo accounts and a little
// transaction history so the API and dashboard have something to show.
// It is idempotent enough for development: re-running against an already
// seeded database stops at the duplicate admin email.
package seeder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/gopass"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/repository"
)

// demoPassword is shared by every seeded account, admin included.
const demoPassword = "Wallex#Demo1"

type Seeder struct {
	DB     repository.Database
	Logger *slog.Logger
}

func New(db repository.Database, logger *slog.Logger) *Seeder {
	return &Seeder{
		DB:     db,
		Logger: logger,
	}
}

type seedAccount struct {
	email     string
	firstName string
	lastName  string
	isAdmin   bool
	currency  string
	deposit   string
}

func (seeder *Seeder) Run() error {
	accounts := []seedAccount{
		{email: "admin@wallex.test", firstName: "Ada", lastName: "Okafor", isAdmin: true, currency: "USD", deposit: "0"},
		{email: "jane@wallex.test", firstName: "Jane", lastName: "Mensah", currency: "USD", deposit: "500.00"},
		{email: "tunde@wallex.test", firstName: "Tunde", lastName: "Bello", currency: "USD", deposit: "150.00"},
		{email: "elena@wallex.test", firstName: "Elena", lastName: "Weber", currency: "EUR", deposit: "320.50"},
	}

	hashedPassword, err := gopass.Hash(demoPassword)
	if err != nil {
		return err
	}

	wallets := make(map[string]string, len(accounts))

	for _, account := range accounts {
		userID, walletID, err := seeder.createAccount(&account, hashedPassword)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", account.email, err)
		}
		wallets[account.email] = walletID

		seeder.Logger.Info("seeded account",
			"email", account.email, "user_id", userID, "wallet_id", walletID)
	}

	// a couple of transfers so transaction history and dashboard metrics are
	// not empty
	transfers := []struct {
		from, to string
		amount   string
	}{
		{from: "jane@wallex.test", to: "tunde@wallex.test", amount: "75.00"},
		{from: "tunde@wallex.test", to: "jane@wallex.test", amount: "20.00"},
	}

	for _, transfer := range transfers {
		amount, err := decimal.NewFromString(transfer.amount)
		if err != nil {
			return err
		}

		transaction, err := seeder.DB.Transaction().PerformTransfer(&ledger.TransferParams{
			SenderWalletID:   wallets[transfer.from],
			ReceiverWalletID: wallets[transfer.to],
			Amount:           amount,
			Currency:         "USD",
			Type:             models.TransactionTypeTransfer,
			ReferenceCode:    uuid.NewString(),
			Description:      "seeded transfer",
		})
		if err != nil {
			return fmt.Errorf("seeding transfer %s -> %s: %w", transfer.from, transfer.to, err)
		}

		err = seeder.DB.Metric().RecordTransaction(time.Now(), transaction.Currency, transaction.Amount, transaction.Fee)
		if err != nil {
			return err
		}
	}

	// saved beneficiary for quick transfer-by-email demos
	_, err = seeder.DB.Beneficiary().Insert(&models.Beneficiary{
		UserID: mustUserID(seeder.DB, "jane@wallex.test"),
		Name:   "Tunde Bello",
		Email:  "tunde@wallex.test",
	})
	if err != nil {
		return err
	}

	total, active, err := seeder.DB.User().Counts()
	if err != nil {
		return err
	}

	err = seeder.DB.Metric().RefreshUserCounts(time.Now(), "USD", total, active)
	if err != nil {
		return err
	}

	seeder.Logger.Info("seeding complete", "users", total)
	return nil
}

func (seeder *Seeder) createAccount(account *seedAccount, hashedPassword string) (string, string, error) {
	user := &models.User{
		Email:          account.email,
		HashedPassword: hashedPassword,
		IsAdmin:        account.isAdmin,
	}

	userID, err := seeder.DB.User().Insert(user, nil)
	if err != nil {
		return "", "", err
	}

	_, err = seeder.DB.Profile().Insert(&models.Profile{
		UserID:    userID,
		FirstName: account.firstName,
		LastName:  account.lastName,
	}, nil)
	if err != nil {
		return "", "", err
	}

	walletID, err := seeder.DB.Wallet().Insert(&models.Wallet{
		UserID:   userID,
		Currency: account.currency,
	}, nil)
	if err != nil {
		return "", "", err
	}

	deposit, err := decimal.NewFromString(account.deposit)
	if err != nil {
		return "", "", err
	}

	if deposit.IsPositive() {
		_, err = seeder.DB.Transaction().PerformTransfer(&ledger.TransferParams{
			ReceiverWalletID: walletID,
			Amount:           deposit,
			Currency:         account.currency,
			Type:             models.TransactionTypeDeposit,
			ReferenceCode:    uuid.NewString(),
			Description:      "seeded opening balance",
		})
		if err != nil {
			return "", "", err
		}
	}

	return userID, walletID, nil
}

func mustUserID(db repository.Database, email string) string {
	user, found, err := db.User().GetByEmail(email)
	if err != nil || !found {
		return ""
	}
	return user.ID
}
