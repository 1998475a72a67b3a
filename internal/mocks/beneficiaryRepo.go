package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/deolamide/wallex/internal/models"
)

type MockBeneficiaryRepo struct {
	mock.Mock
}

func (m *MockBeneficiaryRepo) Insert(beneficiary *models.Beneficiary) (string, error) {
	args := m.Called(beneficiary)
	return args.String(0), args.Error(1)
}

func (m *MockBeneficiaryRepo) GetAllByUserID(userID string) ([]models.Beneficiary, error) {
	args := m.Called(userID)
	beneficiaries, _ := args.Get(0).([]models.Beneficiary)
	return beneficiaries, args.Error(1)
}

func (m *MockBeneficiaryRepo) FindByUserAndEmail(userID, email string) (*models.Beneficiary, bool, error) {
	args := m.Called(userID, email)
	beneficiary, _ := args.Get(0).(*models.Beneficiary)
	return beneficiary, args.Bool(1), args.Error(2)
}
