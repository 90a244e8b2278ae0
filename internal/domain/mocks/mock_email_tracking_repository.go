package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockEmailTrackingRepository is a mock of EmailTrackingRepository interface
type MockEmailTrackingRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEmailTrackingRepositoryMockRecorder
}

// MockEmailTrackingRepositoryMockRecorder is the mock recorder for MockEmailTrackingRepository
type MockEmailTrackingRepositoryMockRecorder struct {
	mock *MockEmailTrackingRepository
}

// NewMockEmailTrackingRepository creates a new mock instance
func NewMockEmailTrackingRepository(ctrl *gomock.Controller) *MockEmailTrackingRepository {
	mock := &MockEmailTrackingRepository{ctrl: ctrl}
	mock.recorder = &MockEmailTrackingRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockEmailTrackingRepository) EXPECT() *MockEmailTrackingRepositoryMockRecorder {
	return m.recorder
}

// GetByTrackingID mocks base method
func (m *MockEmailTrackingRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.EmailTracking, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByTrackingID", ctx, trackingID)
	ret0, _ := ret[0].(*domain.EmailTracking)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByTrackingID indicates an expected call of GetByTrackingID
func (mr *MockEmailTrackingRepositoryMockRecorder) GetByTrackingID(ctx, trackingID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByTrackingID", reflect.TypeOf((*MockEmailTrackingRepository)(nil).GetByTrackingID), ctx, trackingID)
}

// RecordOpen mocks base method
func (m *MockEmailTrackingRepository) RecordOpen(ctx context.Context, emailLogID, trackingID string, at time.Time, userAgent, ipAddress *string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordOpen", ctx, emailLogID, trackingID, at, userAgent, ipAddress)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordOpen indicates an expected call of RecordOpen
func (mr *MockEmailTrackingRepositoryMockRecorder) RecordOpen(ctx, emailLogID, trackingID, at, userAgent, ipAddress interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordOpen", reflect.TypeOf((*MockEmailTrackingRepository)(nil).RecordOpen), ctx, emailLogID, trackingID, at, userAgent, ipAddress)
}

// RecordClick mocks base method
func (m *MockEmailTrackingRepository) RecordClick(ctx context.Context, emailLogID, trackingID, url string, at time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordClick", ctx, emailLogID, trackingID, url, at)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordClick indicates an expected call of RecordClick
func (mr *MockEmailTrackingRepositoryMockRecorder) RecordClick(ctx, emailLogID, trackingID, url, at interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordClick", reflect.TypeOf((*MockEmailTrackingRepository)(nil).RecordClick), ctx, emailLogID, trackingID, url, at)
}
