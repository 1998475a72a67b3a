package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deolamide/wallex/internal/audit"
	"github.com/deolamide/wallex/internal/context"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/helper"
	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/mocks"
	"github.com/deolamide/wallex/internal/models"
)

func newTestBeneficiaryHandler(beneficiaryRepo *mocks.MockBeneficiaryRepo, logRepo *mocks.MockLogRepo, wg *sync.WaitGroup) *BeneficiaryHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	baseURL := "http://localhost"
	errorHandler := errHandler.New("", baseURL, nil, logger)

	return NewBeneficiaryHandler(&BeneficiaryHandler{
		BeneficiaryRepo: beneficiaryRepo,
		Audit:           audit.New(logRepo, logger),
		Helper:          helper.New(&baseURL, wg, errorHandler),
		ErrHandler:      errorHandler,
	})
}

func createBeneficiaryRequest(t *testing.T, user *models.User, body map[string]string) *http.Request {
	t.Helper()

	requestBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/beneficiaries", bytes.NewBuffer(requestBody))
	req.Header.Set("Content-Type", "application/json")
	return context.ContextSetAuthenticatedUser(req, user)
}

func TestHandleCreateBeneficiary_WithoutWallet(t *testing.T) {
	mockBeneficiaryRepo := new(mocks.MockBeneficiaryRepo)
	mockLogRepo := &mocks.MockLogRepo{}
	var wg sync.WaitGroup

	user := &models.User{ID: "user-1", Email: "jane@example.com"}

	mockBeneficiaryRepo.On("Insert", mock.MatchedBy(func(b *models.Beneficiary) bool {
		return b.UserID == "user-1" && b.Email == "tunde@example.com" && !b.WalletID.Valid
	})).Return("ben-1", nil)

	beneficiaryHandler := newTestBeneficiaryHandler(mockBeneficiaryRepo, mockLogRepo, &wg)

	rr := httptest.NewRecorder()
	beneficiaryHandler.HandleCreateBeneficiary(rr, createBeneficiaryRequest(t, user, map[string]string{
		"name":  "Tunde Bello",
		"email": "tunde@example.com",
	}))
	wg.Wait()

	require.Equal(t, http.StatusCreated, rr.Code)
	mockBeneficiaryRepo.AssertExpectations(t)

	require.Len(t, mockLogRepo.Inserted, 1)
	require.Equal(t, models.LogActionCreateBeneficiary, mockLogRepo.Inserted[0].Action)
	require.Equal(t, "ben-1", mockLogRepo.Inserted[0].EntityID.String)
}

func TestHandleCreateBeneficiary_DuplicateWithoutWallet(t *testing.T) {
	mockBeneficiaryRepo := new(mocks.MockBeneficiaryRepo)
	mockLogRepo := &mocks.MockLogRepo{}
	var wg sync.WaitGroup

	user := &models.User{ID: "user-1", Email: "jane@example.com"}

	// the second save of the same email with no wallet must collide even
	// though wallet_id is NULL on both rows
	mockBeneficiaryRepo.On("Insert", mock.MatchedBy(func(b *models.Beneficiary) bool {
		return !b.WalletID.Valid
	})).Return("", ledger.ErrDuplicateBeneficiary)

	beneficiaryHandler := newTestBeneficiaryHandler(mockBeneficiaryRepo, mockLogRepo, &wg)

	rr := httptest.NewRecorder()
	beneficiaryHandler.HandleCreateBeneficiary(rr, createBeneficiaryRequest(t, user, map[string]string{
		"name":  "Tunde Bello",
		"email": "tunde@example.com",
	}))
	wg.Wait()

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), ledger.ErrDuplicateBeneficiary.Error())
	require.Empty(t, mockLogRepo.Inserted)
}

func TestHandleCreateBeneficiary_SelfEmail(t *testing.T) {
	mockBeneficiaryRepo := new(mocks.MockBeneficiaryRepo)
	mockLogRepo := &mocks.MockLogRepo{}
	var wg sync.WaitGroup

	user := &models.User{ID: "user-1", Email: "jane@example.com"}

	beneficiaryHandler := newTestBeneficiaryHandler(mockBeneficiaryRepo, mockLogRepo, &wg)

	rr := httptest.NewRecorder()
	beneficiaryHandler.HandleCreateBeneficiary(rr, createBeneficiaryRequest(t, user, map[string]string{
		"name":  "Jane Doe",
		"email": "jane@example.com",
	}))
	wg.Wait()

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	mockBeneficiaryRepo.AssertNotCalled(t, "Insert", mock.Anything)
}
