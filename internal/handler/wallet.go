package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/context"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/helper"
	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/repository"
	"github.com/deolamide/wallex/internal/request"
	"github.com/deolamide/wallex/internal/response"
	"github.com/deolamide/wallex/internal/validator"
)

type WalletResponseData struct {
	ID                string    `json:"id"`
	Balance           string    `json:"balance"`
	Currency          string    `json:"currency"`
	IsActive          bool      `json:"is_active"`
	LastTransactionAt string    `json:"last_transaction_at,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type WalletHandler struct {
	WalletRepo repository.WalletRepository
	Audit      *audit.Recorder
	Helper     *helper.HelperRepository
	ErrHandler *errHandler.ErrorRepository
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		WalletRepo: handler.WalletRepo,
		Audit:      handler.Audit,
		Helper:     handler.Helper,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleCreateWallet opens an additional wallet for the authenticated user.
// One wallet per currency; the unique constraint has the final say when two
// requests race.
func (h *WalletHandler) HandleCreateWallet(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Currency  string              `json:"currency"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Currency), "Currency is required")
	input.Validator.Check(validator.IsCurrency(input.Currency), "Currency must be a valid ISO 4217 code")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	wallet := &models.Wallet{
		UserID:   user.ID,
		Currency: input.Currency,
	}

	walletID, err := h.WalletRepo.Insert(wallet, nil)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateWallet) {
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	meta := audit.MetaFromRequest(r)

	h.Helper.BackgroundTask(r, func() error {
		return h.Audit.Record(&audit.Entry{
			ActorID:    user.ID,
			Action:     models.LogActionCreateWallet,
			EntityType: models.LogEntityWallet,
			EntityID:   walletID,
			NewValue:   map[string]any{"currency": input.Currency},
			Meta:       meta,
		})
	})

	message := "Wallet created successfully"

	data := map[string]any{
		"id":       walletID,
		"currency": input.Currency,
		"balance":  "0",
	}

	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleUserWallets(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallets, err := h.WalletRepo.GetAllByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Wallets retrieved successfully"

	data := make([]*WalletResponseData, len(wallets))
	for i := range wallets {
		data[i] = walletResponse(&wallets[i])
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWalletDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	walletID := r.PathValue("id")

	wallet, found, err := h.WalletRepo.GetOne(walletID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ledger.ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	// balances are never disclosed to anyone but the owner
	if user.ID != wallet.UserID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	message := "Wallet details fetched successfully"

	err = response.JSONOkResponse(w, walletResponse(wallet), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWalletBalance(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	walletID := r.PathValue("id")

	wallet, found, err := h.WalletRepo.GetOne(walletID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ledger.ErrWalletNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	if user.ID != wallet.UserID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	message := "Balance fetched successfully"

	data := map[string]any{
		"balance":  wallet.Balance.StringFixed(4),
		"currency": wallet.Currency,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func walletResponse(wallet *models.Wallet) *WalletResponseData {
	data := &WalletResponseData{
		ID:        wallet.ID,
		Balance:   wallet.Balance.StringFixed(4),
		Currency:  wallet.Currency,
		IsActive:  wallet.IsActive,
		CreatedAt: wallet.CreatedAt,
	}
	if wallet.LastTransactionAt.Valid {
		data.LastTransactionAt = wallet.LastTransactionAt.Time.Format(time.RFC3339)
	}
	return data
}
