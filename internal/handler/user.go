package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/context"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/file"
	"github.com/deolamide/wallex/internal/helper"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/repository"
	"github.com/deolamide/wallex/internal/request"
	"github.com/deolamide/wallex/internal/response"
	"github.com/deolamide/wallex/internal/validator"
)

// maxPictureSize caps profile picture uploads at 5 MB.
const maxPictureSize = 5 << 20

type ProfileResponseData struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	PhoneNumber       string `json:"phone_number,omitempty"`
	DateOfBirth       string `json:"date_of_birth,omitempty"`
	Address           string `json:"address,omitempty"`
	City              string `json:"city,omitempty"`
	Country           string `json:"country,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

type UserHandler struct {
	ProfileRepo  repository.ProfileRepository
	Audit        *audit.Recorder
	FileUploader *file.FileUploader
	Helper       *helper.HelperRepository
	ErrHandler   *errHandler.ErrorRepository
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		ProfileRepo:  handler.ProfileRepo,
		Audit:        handler.Audit,
		FileUploader: handler.FileUploader,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
	}
}

func (h *UserHandler) HandleUserProfile(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	profile, found, err := h.ProfileRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "Profile fetched successfully"

	err = response.JSONOkResponse(w, profileResponse(user, profile), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		FirstName   string              `json:"first_name"`
		LastName    string              `json:"last_name"`
		PhoneNumber string              `json:"phone_number"`
		DateOfBirth string              `json:"date_of_birth"`
		Address     string              `json:"address"`
		City        string              `json:"city"`
		Country     string              `json:"country"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")

	if input.PhoneNumber != "" {
		input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Phone number must be in international format")
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			input.Validator.AddError("Date of birth must be in YYYY-MM-DD format")
		} else {
			dateOfBirth = &parsed
		}
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	oldProfile, found, err := h.ProfileRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	updated := &models.Profile{
		UserID:    user.ID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	setNullString(&updated.PhoneNumber, input.PhoneNumber)
	setNullString(&updated.Address, input.Address)
	setNullString(&updated.City, input.City)
	setNullString(&updated.Country, input.Country)
	if dateOfBirth != nil {
		updated.DateOfBirth.Time = *dateOfBirth
		updated.DateOfBirth.Valid = true
	}

	err = h.ProfileRepo.Update(updated)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhoneNumber) {
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
			Action:     models.LogActionUpdateProfile,
			EntityType: models.LogEntityProfile,
			EntityID:   oldProfile.ID,
			OldValue:   serializeProfile(oldProfile),
			NewValue:   serializeProfile(updated),
			Meta:       meta,
		})
	})

	message := "Profile updated successfully"

	err = response.JSONOkResponse(w, profileResponse(user, updated), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *UserHandler) HandleProfilePicture(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	err := r.ParseMultipartForm(maxPictureSize)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	uploaded, _, err := r.FormFile("picture")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}
	defer uploaded.Close()

	pictureURL, err := h.FileUploader.Upload(r.Context(), uploaded, "profile-pictures")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.ProfileRepo.UpdatePicture(user.ID, pictureURL)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	meta := audit.MetaFromRequest(r)

	h.Helper.BackgroundTask(r, func() error {
		return h.Audit.Record(&audit.Entry{
			ActorID:    user.ID,
			Action:     models.LogActionUpdateProfile,
			EntityType: models.LogEntityProfile,
			EntityID:   user.ID,
			NewValue:   map[string]any{"profile_picture_url": pictureURL},
			Meta:       meta,
		})
	})

	message := "Profile picture updated successfully"

	data := map[string]any{
		"profile_picture_url": pictureURL,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func profileResponse(user *models.User, profile *models.Profile) *ProfileResponseData {
	data := &ProfileResponseData{
		ID:                user.ID,
		Email:             user.Email,
		FirstName:         profile.FirstName,
		LastName:          profile.LastName,
		PhoneNumber:       profile.PhoneNumber.String,
		Address:           profile.Address.String,
		City:              profile.City.String,
		Country:           profile.Country.String,
		ProfilePictureURL: profile.ProfilePictureURL.String,
	}

	if profile.DateOfBirth.Valid {
		data.DateOfBirth = profile.DateOfBirth.Time.Format("2006-01-02")
	}

	return data
}

func serializeProfile(profile *models.Profile) map[string]any {
	value := map[string]any{
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
	}
	if profile.PhoneNumber.Valid {
		value["phone_number"] = profile.PhoneNumber.String
	}
	if profile.DateOfBirth.Valid {
		value["date_of_birth"] = profile.DateOfBirth.Time.Format("2006-01-02")
	}
	if profile.Address.Valid {
		value["address"] = profile.Address.String
	}
	if profile.City.Valid {
		value["city"] = profile.City.String
	}
	if profile.Country.Valid {
		value["country"] = profile.Country.String
	}
	return value
}

func setNullString(dst *sql.NullString, value string) {
	dst.String = value
	dst.Valid = value != ""
}
