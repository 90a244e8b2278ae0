package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockPipelineMetrics is a mock of PipelineMetrics interface
type MockPipelineMetrics struct {
	ctrl     *gomock.Controller
	recorder *MockPipelineMetricsMockRecorder
}

// MockPipelineMetricsMockRecorder is the mock recorder for MockPipelineMetrics
type MockPipelineMetricsMockRecorder struct {
	mock *MockPipelineMetrics
}

// NewMockPipelineMetrics creates a new mock instance
func NewMockPipelineMetrics(ctrl *gomock.Controller) *MockPipelineMetrics {
	mock := &MockPipelineMetrics{ctrl: ctrl}
	mock.recorder = &MockPipelineMetricsMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockPipelineMetrics) EXPECT() *MockPipelineMetricsMockRecorder {
	return m.recorder
}

// RecordSuccess mocks base method
func (m *MockPipelineMetrics) RecordSuccess(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordSuccess", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordSuccess indicates an expected call of RecordSuccess
func (mr *MockPipelineMetricsMockRecorder) RecordSuccess(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordSuccess", reflect.TypeOf((*MockPipelineMetrics)(nil).RecordSuccess), ctx)
}

// RecordFailure mocks base method
func (m *MockPipelineMetrics) RecordFailure(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordFailure", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordFailure indicates an expected call of RecordFailure
func (mr *MockPipelineMetricsMockRecorder) RecordFailure(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordFailure", reflect.TypeOf((*MockPipelineMetrics)(nil).RecordFailure), ctx)
}

// RecordQueueAge mocks base method
func (m *MockPipelineMetrics) RecordQueueAge(ctx context.Context, age time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordQueueAge", ctx, age)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordQueueAge indicates an expected call of RecordQueueAge
func (mr *MockPipelineMetricsMockRecorder) RecordQueueAge(ctx, age interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordQueueAge", reflect.TypeOf((*MockPipelineMetrics)(nil).RecordQueueAge), ctx, age)
}

// Snapshot mocks base method
func (m *MockPipelineMetrics) Snapshot(ctx context.Context, window time.Duration) (*domain.MetricsSnapshot, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Snapshot", ctx, window)
	ret0, _ := ret[0].(*domain.MetricsSnapshot)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Snapshot indicates an expected call of Snapshot
func (mr *MockPipelineMetricsMockRecorder) Snapshot(ctx, window interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Snapshot", reflect.TypeOf((*MockPipelineMetrics)(nil).Snapshot), ctx, window)
}
