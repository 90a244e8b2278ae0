package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockEmailDriver is a mock of EmailDriver interface
type MockEmailDriver struct {
	ctrl     *gomock.Controller
	recorder *MockEmailDriverMockRecorder
}

// MockEmailDriverMockRecorder is the mock recorder for MockEmailDriver
type MockEmailDriverMockRecorder struct {
	mock *MockEmailDriver
}

// NewMockEmailDriver creates a new mock instance
func NewMockEmailDriver(ctrl *gomock.Controller) *MockEmailDriver {
	mock := &MockEmailDriver{ctrl: ctrl}
	mock.recorder = &MockEmailDriverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockEmailDriver) EXPECT() *MockEmailDriverMockRecorder {
	return m.recorder
}

// Kind mocks base method
func (m *MockEmailDriver) Kind() domain.ProviderKind {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Kind")
	ret0, _ := ret[0].(domain.ProviderKind)
	return ret0
}

// Kind indicates an expected call of Kind
func (mr *MockEmailDriverMockRecorder) Kind() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Kind", reflect.TypeOf((*MockEmailDriver)(nil).Kind))
}

// SendEmail mocks base method
func (m *MockEmailDriver) SendEmail(ctx context.Context, job *domain.SendJob, html string, opts domain.SendOptions) domain.SendOutcome {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendEmail", ctx, job, html, opts)
	ret0, _ := ret[0].(domain.SendOutcome)
	return ret0
}

// SendEmail indicates an expected call of SendEmail
func (mr *MockEmailDriverMockRecorder) SendEmail(ctx, job, html, opts interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendEmail", reflect.TypeOf((*MockEmailDriver)(nil).SendEmail), ctx, job, html, opts)
}
