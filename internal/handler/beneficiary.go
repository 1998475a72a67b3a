package handler

import (
	"database/sql"
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

type BeneficiaryResponseData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	WalletID  string    `json:"wallet_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BeneficiaryHandler struct {
	BeneficiaryRepo repository.BeneficiaryRepository
	WalletRepo      repository.WalletRepository
	Audit           *audit.Recorder
	Helper          *helper.HelperRepository
	ErrHandler      *errHandler.ErrorRepository
}

func NewBeneficiaryHandler(handler *BeneficiaryHandler) *BeneficiaryHandler {
	return &BeneficiaryHandler{
		BeneficiaryRepo: handler.BeneficiaryRepo,
		WalletRepo:      handler.WalletRepo,
		Audit:           handler.Audit,
		Helper:          handler.Helper,
		ErrHandler:      handler.ErrHandler,
	}
}

// HandleCreateBeneficiary saves a recipient shortcut. The email does not have
// to belong to a registered user yet; the wallet id, when given, must exist.
func (h *BeneficiaryHandler) HandleCreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Name      string              `json:"name"`
		Email     string              `json:"email"`
		WalletID  string              `json:"wallet_id"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Name), "Name is required")
	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(input.Email != user.Email, "You cannot add yourself as a beneficiary")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	beneficiary := &models.Beneficiary{
		UserID: user.ID,
		Name:   input.Name,
		Email:  input.Email,
	}

	if input.WalletID != "" {
		wallet, found, err := h.WalletRepo.GetOne(input.WalletID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		if !found {
			h.ErrHandler.FailedValidation(w, r, []string{ledger.ErrWalletNotFound.Error()})
			return
		}
		if wallet.UserID == user.ID {
			h.ErrHandler.FailedValidation(w, r, []string{"You cannot add your own wallet as a beneficiary"})
			return
		}
		beneficiary.WalletID = sql.NullString{String: wallet.ID, Valid: true}
	}

	beneficiaryID, err := h.BeneficiaryRepo.Insert(beneficiary)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateBeneficiary) {
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
			Action:     models.LogActionCreateBeneficiary,
			EntityType: models.LogEntityBeneficiary,
			EntityID:   beneficiaryID,
			NewValue: map[string]any{
				"name":      input.Name,
				"email":     input.Email,
				"wallet_id": input.WalletID,
			},
			Meta: meta,
		})
	})

	message := "Beneficiary added successfully"

	data := map[string]any{
		"id":    beneficiaryID,
		"name":  input.Name,
		"email": input.Email,
	}

	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *BeneficiaryHandler) HandleUserBeneficiaries(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	beneficiaries, err := h.BeneficiaryRepo.GetAllByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Beneficiaries retrieved successfully"

	data := make([]*BeneficiaryResponseData, len(beneficiaries))
	for i, beneficiary := range beneficiaries {
		data[i] = &BeneficiaryResponseData{
			ID:        beneficiary.ID,
			Name:      beneficiary.Name,
			Email:     beneficiary.Email,
			WalletID:  beneficiary.WalletID.String,
			CreatedAt: beneficiary.CreatedAt,
		}
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
