package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/context"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/repository"
	"github.com/deolamide/wallex/internal/request"
	"github.com/deolamide/wallex/internal/response"
	"github.com/deolamide/wallex/internal/validator"
)

type TransactionResponseData struct {
	ID               string `json:"id"`
	SenderWalletID   string `json:"sender_wallet_id,omitempty"`
	ReceiverWalletID string `json:"receiver_wallet_id,omitempty"`
	Amount           string `json:"amount"`
	Fee              string `json:"fee"`
	Currency         string `json:"currency"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	ReferenceCode    string `json:"reference_code"`
	Description      string `json:"description,omitempty"`
	CreatedAt        string `json:"created_at"`
	CompletedAt      string `json:"completed_at,omitempty"`
}

type TransactionHandler struct {
	Engine          *ledger.Engine
	TransactionRepo repository.TransactionRepository
	WalletRepo      repository.WalletRepository
	ErrHandler      *errHandler.ErrorRepository
}

func NewTransactionHandler(handler *TransactionHandler) *TransactionHandler {
	return &TransactionHandler{
		Engine:          handler.Engine,
		TransactionRepo: handler.TransactionRepo,
		WalletRepo:      handler.WalletRepo,
		ErrHandler:      handler.ErrHandler,
	}
}

func (h *TransactionHandler) HandleTransferMoney(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		SenderWalletID   string              `json:"sender_wallet_id"`
		ReceiverWalletID string              `json:"receiver_wallet_id"`
		ReceiverEmail    string              `json:"receiver_email"`
		Amount           decimal.Decimal     `json:"amount"`
		Description      string              `json:"description"`
		Validator        validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.SenderWalletID), "Sender wallet is required")
	input.Validator.Check(input.Amount.IsPositive(), "Amount must be greater than zero")

	receiverGiven := input.ReceiverWalletID != "" || input.ReceiverEmail != ""
	input.Validator.Check(receiverGiven, "Receiver wallet or email is required")
	input.Validator.Check(input.ReceiverWalletID == "" || input.ReceiverEmail == "", "Give either a receiver wallet or an email, not both")

	if input.ReceiverEmail != "" {
		input.Validator.Check(validator.IsEmail(input.ReceiverEmail), "Receiver email must be a valid email address")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	receiver := ledger.ByWalletID(input.ReceiverWalletID)
	if input.ReceiverEmail != "" {
		receiver = ledger.ByBeneficiaryEmail(input.ReceiverEmail)
	}

	transaction, err := h.Engine.Transfer(user, input.SenderWalletID, receiver, input.Amount, input.Description, audit.MetaFromRequest(r))
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Transfer completed successfully"

	err = response.JSONCreatedResponse(w, transactionResponse(transaction), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TransactionHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	input, ok := h.decodeMovement(w, r)
	if !ok {
		return
	}

	transaction, err := h.Engine.Deposit(user, input.WalletID, input.Amount, input.Description, audit.MetaFromRequest(r))
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Deposit completed successfully"

	err = response.JSONCreatedResponse(w, transactionResponse(transaction), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TransactionHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	input, ok := h.decodeMovement(w, r)
	if !ok {
		return
	}

	transaction, err := h.Engine.Withdraw(user, input.WalletID, input.Amount, input.Description, audit.MetaFromRequest(r))
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Withdrawal completed successfully"

	err = response.JSONCreatedResponse(w, transactionResponse(transaction), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TransactionHandler) HandleUserTransactions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	transactions, err := h.TransactionRepo.GetAllForUser(user.ID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Transactions retrieved successfully"

	data := make([]*TransactionResponseData, len(transactions))
	for i := range transactions {
		data[i] = transactionResponse(&transactions[i])
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TransactionHandler) HandleTransactionDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	transactionID := r.PathValue("id")

	transaction, found, err := h.TransactionRepo.GetOne(transactionID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	involved, err := h.userInvolved(user, transaction)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !involved && !user.IsAdmin {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	message := "Transaction fetched successfully"

	err = response.JSONOkResponse(w, transactionResponse(transaction), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type movementInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Description string
}

func (h *TransactionHandler) decodeMovement(w http.ResponseWriter, r *http.Request) (*movementInput, bool) {
	var input struct {
		WalletID    string              `json:"wallet_id"`
		Amount      decimal.Decimal     `json:"amount"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return nil, false
	}

	input.Validator.Check(validator.NotBlank(input.WalletID), "Wallet is required")
	input.Validator.Check(input.Amount.IsPositive(), "Amount must be greater than zero")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return nil, false
	}

	return &movementInput{
		WalletID:    input.WalletID,
		Amount:      input.Amount,
		Description: input.Description,
	}, true
}

// userInvolved reports whether the user owns either side of the transaction.
func (h *TransactionHandler) userInvolved(user *models.User, transaction *models.Transaction) (bool, error) {
	for _, walletID := range []string{transaction.SenderWalletID.String, transaction.ReceiverWalletID.String} {
		if walletID == "" {
			continue
		}
		wallet, found, err := h.WalletRepo.GetOne(walletID)
		if err != nil {
			return false, err
		}
		if found && wallet.UserID == user.ID {
			return true, nil
		}
	}
	return false, nil
}

// respondLedgerError translates the ledger error taxonomy into HTTP
// responses. Anything not in the taxonomy is a server error.
func (h *TransactionHandler) respondLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrRecipientNotFound):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, ledger.ErrNotOwned):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusForbidden, nil)
	case errors.Is(err, ledger.ErrSameWallet),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrCurrencyMismatch),
		errors.Is(err, ledger.ErrWalletInactive):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusUnprocessableEntity, nil)
	case errors.Is(err, ledger.ErrStoreConflict),
		errors.Is(err, ledger.ErrDuplicateReference):
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusConflict, nil)
	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}

func transactionResponse(transaction *models.Transaction) *TransactionResponseData {
	data := &TransactionResponseData{
		ID:               transaction.ID,
		SenderWalletID:   transaction.SenderWalletID.String,
		ReceiverWalletID: transaction.ReceiverWalletID.String,
		Amount:           transaction.Amount.StringFixed(4),
		Fee:              transaction.Fee.StringFixed(4),
		Currency:         transaction.Currency,
		Type:             transaction.Type,
		Status:           transaction.Status,
		ReferenceCode:    transaction.ReferenceCode,
		Description:      transaction.Description.String,
		CreatedAt:        transaction.CreatedAt.Format(time.RFC3339),
	}
	if transaction.CompletedAt.Valid {
		data.CompletedAt = transaction.CompletedAt.Time.Format(time.RFC3339)
	}
	return data
}
