package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockMXRateLimiter is a mock of MXRateLimiter interface
type MockMXRateLimiter struct {
	ctrl     *gomock.Controller
	recorder *MockMXRateLimiterMockRecorder
}

// MockMXRateLimiterMockRecorder is the mock recorder for MockMXRateLimiter
type MockMXRateLimiterMockRecorder struct {
	mock *MockMXRateLimiter
}

// NewMockMXRateLimiter creates a new mock instance
func NewMockMXRateLimiter(ctrl *gomock.Controller) *MockMXRateLimiter {
	mock := &MockMXRateLimiter{ctrl: ctrl}
	mock.recorder = &MockMXRateLimiterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockMXRateLimiter) EXPECT() *MockMXRateLimiterMockRecorder {
	return m.recorder
}

// Allow mocks base method
func (m *MockMXRateLimiter) Allow(ctx context.Context, recipientDomain string) (*domain.MXLimitResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Allow", ctx, recipientDomain)
	ret0, _ := ret[0].(*domain.MXLimitResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Allow indicates an expected call of Allow
func (mr *MockMXRateLimiterMockRecorder) Allow(ctx, recipientDomain interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Allow", reflect.TypeOf((*MockMXRateLimiter)(nil).Allow), ctx, recipientDomain)
}
