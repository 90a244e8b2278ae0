package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockEmailEventRepository is a mock of EmailEventRepository interface
type MockEmailEventRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEmailEventRepositoryMockRecorder
}

// MockEmailEventRepositoryMockRecorder is the mock recorder for MockEmailEventRepository
type MockEmailEventRepositoryMockRecorder struct {
	mock *MockEmailEventRepository
}

// NewMockEmailEventRepository creates a new mock instance
func NewMockEmailEventRepository(ctrl *gomock.Controller) *MockEmailEventRepository {
	mock := &MockEmailEventRepository{ctrl: ctrl}
	mock.recorder = &MockEmailEventRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockEmailEventRepository) EXPECT() *MockEmailEventRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockEmailEventRepository) Create(ctx context.Context, event *domain.EmailEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockEmailEventRepositoryMockRecorder) Create(ctx, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockEmailEventRepository)(nil).Create), ctx, event)
}

// CountByTypeSince mocks base method
func (m *MockEmailEventRepository) CountByTypeSince(ctx context.Context, tenantID string, since time.Time) (map[domain.EmailEventType]int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountByTypeSince", ctx, tenantID, since)
	ret0, _ := ret[0].(map[domain.EmailEventType]int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountByTypeSince indicates an expected call of CountByTypeSince
func (mr *MockEmailEventRepositoryMockRecorder) CountByTypeSince(ctx, tenantID, since interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountByTypeSince", reflect.TypeOf((*MockEmailEventRepository)(nil).CountByTypeSince), ctx, tenantID, since)
}
