package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/config"
	"github.com/deolamide/wallex/internal/context"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/helper"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/repository"
	"github.com/deolamide/wallex/internal/request"
	"github.com/deolamide/wallex/internal/response"
	"github.com/deolamide/wallex/internal/smtp"
	"github.com/deolamide/wallex/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

// DefaultCurrency is assigned to the wallet created during registration when
// the client does not ask for a specific one.
const DefaultCurrency = "USD"

// maxFailedLogins is the number of consecutive bad passwords that locks an
// account until support re-activates it.
const maxFailedLogins = 3

type AuthHandler struct {
	DB         repository.Database
	Audit      *audit.Recorder
	Helper     *helper.HelperRepository
	Mailer     smtp.MailerInterface
	Config     *config.Config
	ErrHandler *errHandler.ErrorRepository
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		DB:         handler.DB,
		Audit:      handler.Audit,
		Helper:     handler.Helper,
		Mailer:     handler.Mailer,
		Config:     handler.Config,
		ErrHandler: handler.ErrHandler,
	}
}

// Registration creates the user, their profile and a default wallet inside a
// single database transaction; a failure at any point leaves no partial
// account behind.
func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string              `json:"email"`
		Password    string              `json:"password"`
		FirstName   string              `json:"first_name"`
		LastName    string              `json:"last_name"`
		PhoneNumber string              `json:"phone_number"`
		Currency    string              `json:"currency"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// weak passwords are rejected before anything else is looked at
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	_, found, err := h.DB.User().GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(!found, "Email is already in use")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")

	if input.PhoneNumber != "" {
		input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Phone number must be in international format")
	}

	if input.Currency == "" {
		input.Currency = DefaultCurrency
	}
	input.Validator.Check(validator.IsCurrency(input.Currency), "Currency must be a valid ISO 4217 code")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	user := &models.User{
		Email:          input.Email,
		HashedPassword: hashedPassword,
	}

	userID, err := h.DB.User().Insert(user, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	profile := &models.Profile{
		UserID:    userID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if input.PhoneNumber != "" {
		profile.PhoneNumber.String = input.PhoneNumber
		profile.PhoneNumber.Valid = true
	}

	_, err = h.DB.Profile().Insert(profile, tx)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhoneNumber) {
			h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	wallet := &models.Wallet{
		UserID:   userID,
		Currency: input.Currency,
	}

	walletID, err := h.DB.Wallet().Insert(wallet, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	meta := audit.MetaFromRequest(r)

	h.Helper.BackgroundTask(r, func() error {
		return h.Audit.Record(&audit.Entry{
			ActorID:    userID,
			Action:     models.LogActionRegister,
			EntityType: models.LogEntityUser,
			EntityID:   userID,
			NewValue: map[string]any{
				"email":      input.Email,
				"first_name": input.FirstName,
				"last_name":  input.LastName,
			},
			Meta: meta,
		})
	})

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = input.FirstName + " " + input.LastName
		emailData["Currency"] = input.Currency

		return h.Mailer.Send(input.Email, emailData, "welcome.tmpl")
	})

	message := "Account created successfully"

	data := map[string]any{
		"user_id":   userID,
		"wallet_id": walletID,
		"currency":  input.Currency,
	}

	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user, found, err := h.DB.User().GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
	input.Validator.Check(found, "Incorrect email/password")

	meta := audit.MetaFromRequest(r)

	if found {
		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(passwordMatches, "Incorrect email/password")

		if !passwordMatches {
			// the failed attempt is recorded synchronously so the lockout
			// counter below sees it
			h.Audit.Record(&audit.Entry{
				ActorID:    user.ID,
				Action:     models.LogActionFailedLogin,
				EntityType: models.LogEntityUser,
				EntityID:   user.ID,
				Meta:       meta,
			})

			count, err := h.DB.Log().CountConsecutiveFailedLogins(user.ID, maxFailedLogins)
			if err != nil {
				// a broken counter must not turn a bad password into a 500;
				// the lockout simply does not trip on this attempt
				h.ErrHandler.ReportServerError(r, err)
			}
			if count >= maxFailedLogins {
				h.Helper.BackgroundTask(r, func() error {
					return h.DB.User().Deactivate(user.ID)
				})

				h.Helper.BackgroundTask(r, func() error {
					return h.Audit.Record(&audit.Entry{
						ActorID:    user.ID,
						Action:     models.LogActionLockAccount,
						EntityType: models.LogEntityUser,
						EntityID:   user.ID,
						Meta:       meta,
					})
				})

				h.ErrHandler.FailedValidation(w, r, []string{"Account has been locked. Please contact support"})
				return
			}
		}
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if !user.IsActive {
		message := "Account has been locked. Please contact support"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		return h.DB.User().RecordLogin(user.ID, time.Now())
	})

	h.Helper.BackgroundTask(r, func() error {
		return h.Audit.Record(&audit.Entry{
			ActorID:    user.ID,
			Action:     models.LogActionLogin,
			EntityType: models.LogEntityUser,
			EntityID:   user.ID,
			Meta:       meta,
		})
	})

	var claims jwt.Claims
	claims.Subject = user.ID

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
	}
	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAuthenticatedUser returns the account attached to the presented
// token, mostly for clients that want to refresh their local state.
func (h *AuthHandler) HandleAuthenticatedUser(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	data := map[string]any{
		"id":             user.ID,
		"email":          user.Email,
		"is_admin":       user.IsAdmin,
		"email_verified": user.EmailVerified,
		"created_at":     user.CreatedAt.Format(time.RFC3339),
	}

	err := response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
