package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockIPPoolRepository is a mock of IPPoolRepository interface
type MockIPPoolRepository struct {
	ctrl     *gomock.Controller
	recorder *MockIPPoolRepositoryMockRecorder
}

// MockIPPoolRepositoryMockRecorder is the mock recorder for MockIPPoolRepository
type MockIPPoolRepositoryMockRecorder struct {
	mock *MockIPPoolRepository
}

// NewMockIPPoolRepository creates a new mock instance
func NewMockIPPoolRepository(ctrl *gomock.Controller) *MockIPPoolRepository {
	mock := &MockIPPoolRepository{ctrl: ctrl}
	mock.recorder = &MockIPPoolRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockIPPoolRepository) EXPECT() *MockIPPoolRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method
func (m *MockIPPoolRepository) GetByID(ctx context.Context, id string) (*domain.IPPool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.IPPool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockIPPoolRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockIPPoolRepository)(nil).GetByID), ctx, id)
}

// GetBestActiveByType mocks base method
func (m *MockIPPoolRepository) GetBestActiveByType(ctx context.Context, poolType domain.IPPoolType) (*domain.IPPool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetBestActiveByType", ctx, poolType)
	ret0, _ := ret[0].(*domain.IPPool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetBestActiveByType indicates an expected call of GetBestActiveByType
func (mr *MockIPPoolRepositoryMockRecorder) GetBestActiveByType(ctx, poolType interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetBestActiveByType", reflect.TypeOf((*MockIPPoolRepository)(nil).GetBestActiveByType), ctx, poolType)
}
