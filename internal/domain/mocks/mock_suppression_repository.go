package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockSuppressionRepository is a mock of SuppressionRepository interface
type MockSuppressionRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSuppressionRepositoryMockRecorder
}

// MockSuppressionRepositoryMockRecorder is the mock recorder for MockSuppressionRepository
type MockSuppressionRepositoryMockRecorder struct {
	mock *MockSuppressionRepository
}

// NewMockSuppressionRepository creates a new mock instance
func NewMockSuppressionRepository(ctrl *gomock.Controller) *MockSuppressionRepository {
	mock := &MockSuppressionRepository{ctrl: ctrl}
	mock.recorder = &MockSuppressionRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSuppressionRepository) EXPECT() *MockSuppressionRepositoryMockRecorder {
	return m.recorder
}

// Upsert mocks base method
func (m *MockSuppressionRepository) Upsert(ctx context.Context, suppression *domain.Suppression) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, suppression)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockSuppressionRepositoryMockRecorder) Upsert(ctx, suppression interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockSuppressionRepository)(nil).Upsert), ctx, suppression)
}

// Get mocks base method
func (m *MockSuppressionRepository) Get(ctx context.Context, tenantID, email string) (*domain.Suppression, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, tenantID, email)
	ret0, _ := ret[0].(*domain.Suppression)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get
func (mr *MockSuppressionRepositoryMockRecorder) Get(ctx, tenantID, email interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockSuppressionRepository)(nil).Get), ctx, tenantID, email)
}

// IsSuppressed mocks base method
func (m *MockSuppressionRepository) IsSuppressed(ctx context.Context, tenantID, email string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsSuppressed", ctx, tenantID, email)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IsSuppressed indicates an expected call of IsSuppressed
func (mr *MockSuppressionRepositoryMockRecorder) IsSuppressed(ctx, tenantID, email interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsSuppressed", reflect.TypeOf((*MockSuppressionRepository)(nil).IsSuppressed), ctx, tenantID, email)
}

// Delete mocks base method
func (m *MockSuppressionRepository) Delete(ctx context.Context, tenantID, email string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, tenantID, email)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete
func (mr *MockSuppressionRepositoryMockRecorder) Delete(ctx, tenantID, email interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockSuppressionRepository)(nil).Delete), ctx, tenantID, email)
}

// DeleteExpired mocks base method
func (m *MockSuppressionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteExpired", ctx, now)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DeleteExpired indicates an expected call of DeleteExpired
func (mr *MockSuppressionRepositoryMockRecorder) DeleteExpired(ctx, now interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteExpired", reflect.TypeOf((*MockSuppressionRepository)(nil).DeleteExpired), ctx, now)
}
