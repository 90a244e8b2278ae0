package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockRecipientRepository is a mock of RecipientRepository interface
type MockRecipientRepository struct {
	ctrl     *gomock.Controller
	recorder *MockRecipientRepositoryMockRecorder
}

// MockRecipientRepositoryMockRecorder is the mock recorder for MockRecipientRepository
type MockRecipientRepositoryMockRecorder struct {
	mock *MockRecipientRepository
}

// NewMockRecipientRepository creates a new mock instance
func NewMockRecipientRepository(ctrl *gomock.Controller) *MockRecipientRepository {
	mock := &MockRecipientRepository{ctrl: ctrl}
	mock.recorder = &MockRecipientRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockRecipientRepository) EXPECT() *MockRecipientRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method
func (m *MockRecipientRepository) GetByID(ctx context.Context, id string) (*domain.Recipient, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Recipient)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockRecipientRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockRecipientRepository)(nil).GetByID), ctx, id)
}
