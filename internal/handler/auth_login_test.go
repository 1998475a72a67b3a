package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/config"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/helper"
	"github.com/deolamide/wallex/internal/mocks"
	"github.com/deolamide/wallex/internal/models"
)

// bcrypt hash of "correctpassword"
const testPasswordHash = "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG"

func newTestAuthHandler(userRepo *mocks.MockUserRepo, logRepo *mocks.MockLogRepo) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	baseURL := "http://localhost"
	var wg sync.WaitGroup

	cfg := &config.Config{
		BaseURL: baseURL,
	}
	cfg.Jwt.SecretKey = "test_secret"

	errorHandler := errHandler.New("", baseURL, nil, logger)

	return NewAuthHandler(&AuthHandler{
		DB: &mocks.MockDatabase{
			UserRepo: userRepo,
			LogRepo:  logRepo,
		},
		Audit:      audit.New(logRepo, logger),
		Helper:     helper.New(&baseURL, &wg, errorHandler),
		Mailer:     new(mocks.MockMailer),
		Config:     cfg,
		ErrHandler: errorHandler,
	})
}

func loginRequest(t *testing.T, email, password string) *http.Request {
	t.Helper()

	requestBody, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockLogRepo := &mocks.MockLogRepo{}

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		IsActive:       true,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockLogRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "correctpassword"))

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "expected response['data'] to be a map")

	require.Contains(t, data, "auth_token")
	require.Contains(t, data, "token_expiry")
	require.NotEmpty(t, data["auth_token"])

	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockLogRepo := &mocks.MockLogRepo{}

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		IsActive:       true,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockLogRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "wrongpassword"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// the failed attempt must be recorded for the lockout counter
	require.Len(t, mockLogRepo.Inserted, 1)
	require.Equal(t, models.LogActionFailedLogin, mockLogRepo.Inserted[0].Action)
}

func TestHandleAuthLogin_LocksAfterRepeatedFailures(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockLogRepo := &mocks.MockLogRepo{FailedLogins: maxFailedLogins}

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		IsActive:       true,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockLogRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "wrongpassword"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "locked")
}

func TestHandleAuthLogin_LockoutCounterFailureDoesNotLock(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockLogRepo := &mocks.MockLogRepo{CountErr: errors.New("logs table unavailable")}

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		IsActive:       true,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockLogRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "wrongpassword"))

	// the bad password is still rejected as such, not escalated to a
	// lockout or a server error
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NotContains(t, rr.Body.String(), "locked")
}

func TestHandleAuthLogin_InactiveAccount(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockLogRepo := &mocks.MockLogRepo{}

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		IsActive:       false,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockLogRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "test@example.com", "correctpassword"))

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleAuthLogin_UnknownEmail(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockLogRepo := &mocks.MockLogRepo{}

	mockUserRepo.On("GetByEmail", "ghost@example.com").Return((*models.User)(nil), false, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockLogRepo)

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, loginRequest(t, "ghost@example.com", "whatever"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Empty(t, mockLogRepo.Inserted)
}
