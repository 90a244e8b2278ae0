package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockFeedbackQueueRepository is a mock of FeedbackQueueRepository interface
type MockFeedbackQueueRepository struct {
	ctrl     *gomock.Controller
	recorder *MockFeedbackQueueRepositoryMockRecorder
}

// MockFeedbackQueueRepositoryMockRecorder is the mock recorder for MockFeedbackQueueRepository
type MockFeedbackQueueRepositoryMockRecorder struct {
	mock *MockFeedbackQueueRepository
}

// NewMockFeedbackQueueRepository creates a new mock instance
func NewMockFeedbackQueueRepository(ctrl *gomock.Controller) *MockFeedbackQueueRepository {
	mock := &MockFeedbackQueueRepository{ctrl: ctrl}
	mock.recorder = &MockFeedbackQueueRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockFeedbackQueueRepository) EXPECT() *MockFeedbackQueueRepositoryMockRecorder {
	return m.recorder
}

// Enqueue mocks base method
func (m *MockFeedbackQueueRepository) Enqueue(ctx context.Context, entry *domain.FeedbackQueueEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Enqueue", ctx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Enqueue indicates an expected call of Enqueue
func (mr *MockFeedbackQueueRepositoryMockRecorder) Enqueue(ctx, entry interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Enqueue", reflect.TypeOf((*MockFeedbackQueueRepository)(nil).Enqueue), ctx, entry)
}

// FetchPending mocks base method
func (m *MockFeedbackQueueRepository) FetchPending(ctx context.Context, limit int) ([]*domain.FeedbackQueueEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchPending", ctx, limit)
	ret0, _ := ret[0].([]*domain.FeedbackQueueEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchPending indicates an expected call of FetchPending
func (mr *MockFeedbackQueueRepositoryMockRecorder) FetchPending(ctx, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchPending", reflect.TypeOf((*MockFeedbackQueueRepository)(nil).FetchPending), ctx, limit)
}

// Complete mocks base method
func (m *MockFeedbackQueueRepository) Complete(ctx context.Context, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Complete", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Complete indicates an expected call of Complete
func (mr *MockFeedbackQueueRepositoryMockRecorder) Complete(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Complete", reflect.TypeOf((*MockFeedbackQueueRepository)(nil).Complete), ctx, id)
}

// Fail mocks base method
func (m *MockFeedbackQueueRepository) Fail(ctx context.Context, id, errorMsg string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Fail", ctx, id, errorMsg)
	ret0, _ := ret[0].(error)
	return ret0
}

// Fail indicates an expected call of Fail
func (mr *MockFeedbackQueueRepositoryMockRecorder) Fail(ctx, id, errorMsg interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Fail", reflect.TypeOf((*MockFeedbackQueueRepository)(nil).Fail), ctx, id, errorMsg)
}
