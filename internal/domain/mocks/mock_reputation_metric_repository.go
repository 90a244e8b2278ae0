package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockReputationMetricRepository is a mock of ReputationMetricRepository interface
type MockReputationMetricRepository struct {
	ctrl     *gomock.Controller
	recorder *MockReputationMetricRepositoryMockRecorder
}

// MockReputationMetricRepositoryMockRecorder is the mock recorder for MockReputationMetricRepository
type MockReputationMetricRepositoryMockRecorder struct {
	mock *MockReputationMetricRepository
}

// NewMockReputationMetricRepository creates a new mock instance
func NewMockReputationMetricRepository(ctrl *gomock.Controller) *MockReputationMetricRepository {
	mock := &MockReputationMetricRepository{ctrl: ctrl}
	mock.recorder = &MockReputationMetricRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockReputationMetricRepository) EXPECT() *MockReputationMetricRepositoryMockRecorder {
	return m.recorder
}

// Upsert mocks base method
func (m *MockReputationMetricRepository) Upsert(ctx context.Context, metric *domain.ReputationMetric) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, metric)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockReputationMetricRepositoryMockRecorder) Upsert(ctx, metric interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockReputationMetricRepository)(nil).Upsert), ctx, metric)
}

// Get mocks base method
func (m *MockReputationMetricRepository) Get(ctx context.Context, tenantID string, date time.Time) (*domain.ReputationMetric, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, tenantID, date)
	ret0, _ := ret[0].(*domain.ReputationMetric)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get
func (mr *MockReputationMetricRepositoryMockRecorder) Get(ctx, tenantID, date interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockReputationMetricRepository)(nil).Get), ctx, tenantID, date)
}
