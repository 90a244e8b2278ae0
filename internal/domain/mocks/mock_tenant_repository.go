package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockTenantRepository is a mock of TenantRepository interface
type MockTenantRepository struct {
	ctrl     *gomock.Controller
	recorder *MockTenantRepositoryMockRecorder
}

// MockTenantRepositoryMockRecorder is the mock recorder for MockTenantRepository
type MockTenantRepositoryMockRecorder struct {
	mock *MockTenantRepository
}

// NewMockTenantRepository creates a new mock instance
func NewMockTenantRepository(ctrl *gomock.Controller) *MockTenantRepository {
	mock := &MockTenantRepository{ctrl: ctrl}
	mock.recorder = &MockTenantRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockTenantRepository) EXPECT() *MockTenantRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method
func (m *MockTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Tenant)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockTenantRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockTenantRepository)(nil).GetByID), ctx, id)
}

// ListActive mocks base method
func (m *MockTenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListActive", ctx)
	ret0, _ := ret[0].([]*domain.Tenant)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListActive indicates an expected call of ListActive
func (mr *MockTenantRepositoryMockRecorder) ListActive(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListActive", reflect.TypeOf((*MockTenantRepository)(nil).ListActive), ctx)
}

// ListSandboxCandidates mocks base method
func (m *MockTenantRepository) ListSandboxCandidates(ctx context.Context, createdBefore time.Time, maxBounceRate, maxComplaintRate float64) ([]*domain.Tenant, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListSandboxCandidates", ctx, createdBefore, maxBounceRate, maxComplaintRate)
	ret0, _ := ret[0].([]*domain.Tenant)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListSandboxCandidates indicates an expected call of ListSandboxCandidates
func (mr *MockTenantRepositoryMockRecorder) ListSandboxCandidates(ctx, createdBefore, maxBounceRate, maxComplaintRate interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListSandboxCandidates", reflect.TypeOf((*MockTenantRepository)(nil).ListSandboxCandidates), ctx, createdBefore, maxBounceRate, maxComplaintRate)
}

// Suspend mocks base method
func (m *MockTenantRepository) Suspend(ctx context.Context, id, reason string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Suspend", ctx, id, reason)
	ret0, _ := ret[0].(error)
	return ret0
}

// Suspend indicates an expected call of Suspend
func (mr *MockTenantRepositoryMockRecorder) Suspend(ctx, id, reason interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Suspend", reflect.TypeOf((*MockTenantRepository)(nil).Suspend), ctx, id, reason)
}

// Approve mocks base method
func (m *MockTenantRepository) Approve(ctx context.Context, id, approvedBy string, dailyLimit int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Approve", ctx, id, approvedBy, dailyLimit)
	ret0, _ := ret[0].(error)
	return ret0
}

// Approve indicates an expected call of Approve
func (mr *MockTenantRepositoryMockRecorder) Approve(ctx, id, approvedBy, dailyLimit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Approve", reflect.TypeOf((*MockTenantRepository)(nil).Approve), ctx, id, approvedBy, dailyLimit)
}

// UpdateRates mocks base method
func (m *MockTenantRepository) UpdateRates(ctx context.Context, id string, bounceRate, complaintRate float64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateRates", ctx, id, bounceRate, complaintRate)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateRates indicates an expected call of UpdateRates
func (mr *MockTenantRepositoryMockRecorder) UpdateRates(ctx, id, bounceRate, complaintRate interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateRates", reflect.TypeOf((*MockTenantRepository)(nil).UpdateRates), ctx, id, bounceRate, complaintRate)
}
