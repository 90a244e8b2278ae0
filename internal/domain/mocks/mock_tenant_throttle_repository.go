package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockTenantThrottleRepository is a mock of TenantThrottleRepository interface
type MockTenantThrottleRepository struct {
	ctrl     *gomock.Controller
	recorder *MockTenantThrottleRepositoryMockRecorder
}

// MockTenantThrottleRepositoryMockRecorder is the mock recorder for MockTenantThrottleRepository
type MockTenantThrottleRepositoryMockRecorder struct {
	mock *MockTenantThrottleRepository
}

// NewMockTenantThrottleRepository creates a new mock instance
func NewMockTenantThrottleRepository(ctrl *gomock.Controller) *MockTenantThrottleRepository {
	mock := &MockTenantThrottleRepository{ctrl: ctrl}
	mock.recorder = &MockTenantThrottleRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockTenantThrottleRepository) EXPECT() *MockTenantThrottleRepositoryMockRecorder {
	return m.recorder
}

// Upsert mocks base method
func (m *MockTenantThrottleRepository) Upsert(ctx context.Context, throttle *domain.TenantThrottle) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, throttle)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockTenantThrottleRepositoryMockRecorder) Upsert(ctx, throttle interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockTenantThrottleRepository)(nil).Upsert), ctx, throttle)
}

// Get mocks base method
func (m *MockTenantThrottleRepository) Get(ctx context.Context, tenantID string, date time.Time) (*domain.TenantThrottle, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, tenantID, date)
	ret0, _ := ret[0].(*domain.TenantThrottle)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get
func (mr *MockTenantThrottleRepositoryMockRecorder) Get(ctx, tenantID, date interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockTenantThrottleRepository)(nil).Get), ctx, tenantID, date)
}

// IncrementSends mocks base method
func (m *MockTenantThrottleRepository) IncrementSends(ctx context.Context, tenantID string, date time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IncrementSends", ctx, tenantID, date)
	ret0, _ := ret[0].(error)
	return ret0
}

// IncrementSends indicates an expected call of IncrementSends
func (mr *MockTenantThrottleRepositoryMockRecorder) IncrementSends(ctx, tenantID, date interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IncrementSends", reflect.TypeOf((*MockTenantThrottleRepository)(nil).IncrementSends), ctx, tenantID, date)
}
