package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockSendingDomainRepository is a mock of SendingDomainRepository interface
type MockSendingDomainRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSendingDomainRepositoryMockRecorder
}

// MockSendingDomainRepositoryMockRecorder is the mock recorder for MockSendingDomainRepository
type MockSendingDomainRepositoryMockRecorder struct {
	mock *MockSendingDomainRepository
}

// NewMockSendingDomainRepository creates a new mock instance
func NewMockSendingDomainRepository(ctrl *gomock.Controller) *MockSendingDomainRepository {
	mock := &MockSendingDomainRepository{ctrl: ctrl}
	mock.recorder = &MockSendingDomainRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSendingDomainRepository) EXPECT() *MockSendingDomainRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method
func (m *MockSendingDomainRepository) GetByID(ctx context.Context, id string) (*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockSendingDomainRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockSendingDomainRepository)(nil).GetByID), ctx, id)
}

// GetByName mocks base method
func (m *MockSendingDomainRepository) GetByName(ctx context.Context, tenantID, domainName string) (*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByName", ctx, tenantID, domainName)
	ret0, _ := ret[0].(*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByName indicates an expected call of GetByName
func (mr *MockSendingDomainRepositoryMockRecorder) GetByName(ctx, tenantID, domainName interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByName", reflect.TypeOf((*MockSendingDomainRepository)(nil).GetByName), ctx, tenantID, domainName)
}

// ListByTenant mocks base method
func (m *MockSendingDomainRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByTenant", ctx, tenantID)
	ret0, _ := ret[0].([]*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByTenant indicates an expected call of ListByTenant
func (mr *MockSendingDomainRepositoryMockRecorder) ListByTenant(ctx, tenantID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByTenant", reflect.TypeOf((*MockSendingDomainRepository)(nil).ListByTenant), ctx, tenantID)
}

// ListWarmingUp mocks base method
func (m *MockSendingDomainRepository) ListWarmingUp(ctx context.Context) ([]*domain.SendingDomain, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListWarmingUp", ctx)
	ret0, _ := ret[0].([]*domain.SendingDomain)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListWarmingUp indicates an expected call of ListWarmingUp
func (mr *MockSendingDomainRepositoryMockRecorder) ListWarmingUp(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListWarmingUp", reflect.TypeOf((*MockSendingDomainRepository)(nil).ListWarmingUp), ctx)
}
