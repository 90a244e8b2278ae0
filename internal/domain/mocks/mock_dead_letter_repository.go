package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockDeadLetterRepository is a mock of DeadLetterRepository interface
type MockDeadLetterRepository struct {
	ctrl     *gomock.Controller
	recorder *MockDeadLetterRepositoryMockRecorder
}

// MockDeadLetterRepositoryMockRecorder is the mock recorder for MockDeadLetterRepository
type MockDeadLetterRepositoryMockRecorder struct {
	mock *MockDeadLetterRepository
}

// NewMockDeadLetterRepository creates a new mock instance
func NewMockDeadLetterRepository(ctrl *gomock.Controller) *MockDeadLetterRepository {
	mock := &MockDeadLetterRepository{ctrl: ctrl}
	mock.recorder = &MockDeadLetterRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockDeadLetterRepository) EXPECT() *MockDeadLetterRepositoryMockRecorder {
	return m.recorder
}

// List mocks base method
func (m *MockDeadLetterRepository) List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterEntry, int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, limit, offset)
	ret0, _ := ret[0].([]*domain.DeadLetterEntry)
	ret1, _ := ret[1].(int64)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// List indicates an expected call of List
func (mr *MockDeadLetterRepositoryMockRecorder) List(ctx, limit, offset interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockDeadLetterRepository)(nil).List), ctx, limit, offset)
}

// GetByID mocks base method
func (m *MockDeadLetterRepository) GetByID(ctx context.Context, id string) (*domain.DeadLetterEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.DeadLetterEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockDeadLetterRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockDeadLetterRepository)(nil).GetByID), ctx, id)
}

// Requeue mocks base method
func (m *MockDeadLetterRepository) Requeue(ctx context.Context, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Requeue", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Requeue indicates an expected call of Requeue
func (mr *MockDeadLetterRepositoryMockRecorder) Requeue(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Requeue", reflect.TypeOf((*MockDeadLetterRepository)(nil).Requeue), ctx, id)
}

// RequeueAll mocks base method
func (m *MockDeadLetterRepository) RequeueAll(ctx context.Context) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RequeueAll", ctx)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RequeueAll indicates an expected call of RequeueAll
func (mr *MockDeadLetterRepositoryMockRecorder) RequeueAll(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RequeueAll", reflect.TypeOf((*MockDeadLetterRepository)(nil).RequeueAll), ctx)
}

// Delete mocks base method
func (m *MockDeadLetterRepository) Delete(ctx context.Context, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete
func (mr *MockDeadLetterRepositoryMockRecorder) Delete(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockDeadLetterRepository)(nil).Delete), ctx, id)
}

// DeleteOlderThan mocks base method
func (m *MockDeadLetterRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteOlderThan", ctx, olderThan)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DeleteOlderThan indicates an expected call of DeleteOlderThan
func (mr *MockDeadLetterRepositoryMockRecorder) DeleteOlderThan(ctx, olderThan interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteOlderThan", reflect.TypeOf((*MockDeadLetterRepository)(nil).DeleteOlderThan), ctx, olderThan)
}

// GetStats mocks base method
func (m *MockDeadLetterRepository) GetStats(ctx context.Context) (*domain.DLQStats, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetStats", ctx)
	ret0, _ := ret[0].(*domain.DLQStats)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetStats indicates an expected call of GetStats
func (mr *MockDeadLetterRepositoryMockRecorder) GetStats(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetStats", reflect.TypeOf((*MockDeadLetterRepository)(nil).GetStats), ctx)
}
