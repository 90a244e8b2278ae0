package mocks

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockSendQueueRepository is a mock of SendQueueRepository interface
type MockSendQueueRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSendQueueRepositoryMockRecorder
}

// MockSendQueueRepositoryMockRecorder is the mock recorder for MockSendQueueRepository
type MockSendQueueRepositoryMockRecorder struct {
	mock *MockSendQueueRepository
}

// NewMockSendQueueRepository creates a new mock instance
func NewMockSendQueueRepository(ctrl *gomock.Controller) *MockSendQueueRepository {
	mock := &MockSendQueueRepository{ctrl: ctrl}
	mock.recorder = &MockSendQueueRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSendQueueRepository) EXPECT() *MockSendQueueRepositoryMockRecorder {
	return m.recorder
}

// Enqueue mocks base method
func (m *MockSendQueueRepository) Enqueue(ctx context.Context, jobs []*domain.SendJob) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Enqueue", ctx, jobs)
	ret0, _ := ret[0].(error)
	return ret0
}

// Enqueue indicates an expected call of Enqueue
func (mr *MockSendQueueRepositoryMockRecorder) Enqueue(ctx, jobs interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Enqueue", reflect.TypeOf((*MockSendQueueRepository)(nil).Enqueue), ctx, jobs)
}

// EnqueueTx mocks base method
func (m *MockSendQueueRepository) EnqueueTx(ctx context.Context, tx *sql.Tx, jobs []*domain.SendJob) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EnqueueTx", ctx, tx, jobs)
	ret0, _ := ret[0].(error)
	return ret0
}

// EnqueueTx indicates an expected call of EnqueueTx
func (mr *MockSendQueueRepositoryMockRecorder) EnqueueTx(ctx, tx, jobs interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EnqueueTx", reflect.TypeOf((*MockSendQueueRepository)(nil).EnqueueTx), ctx, tx, jobs)
}

// FetchPending mocks base method
func (m *MockSendQueueRepository) FetchPending(ctx context.Context, limit int) ([]*domain.SendJob, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchPending", ctx, limit)
	ret0, _ := ret[0].([]*domain.SendJob)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchPending indicates an expected call of FetchPending
func (mr *MockSendQueueRepositoryMockRecorder) FetchPending(ctx, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchPending", reflect.TypeOf((*MockSendQueueRepository)(nil).FetchPending), ctx, limit)
}

// Complete mocks base method
func (m *MockSendQueueRepository) Complete(ctx context.Context, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Complete", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Complete indicates an expected call of Complete
func (mr *MockSendQueueRepositoryMockRecorder) Complete(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Complete", reflect.TypeOf((*MockSendQueueRepository)(nil).Complete), ctx, id)
}

// MarkAsFailed mocks base method
func (m *MockSendQueueRepository) MarkAsFailed(ctx context.Context, id, errorMsg string, nextRetryAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkAsFailed", ctx, id, errorMsg, nextRetryAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkAsFailed indicates an expected call of MarkAsFailed
func (mr *MockSendQueueRepositoryMockRecorder) MarkAsFailed(ctx, id, errorMsg, nextRetryAt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkAsFailed", reflect.TypeOf((*MockSendQueueRepository)(nil).MarkAsFailed), ctx, id, errorMsg, nextRetryAt)
}

// MoveToDeadLetter mocks base method
func (m *MockSendQueueRepository) MoveToDeadLetter(ctx context.Context, job *domain.SendJob, finalError string, stacktrace *string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MoveToDeadLetter", ctx, job, finalError, stacktrace)
	ret0, _ := ret[0].(error)
	return ret0
}

// MoveToDeadLetter indicates an expected call of MoveToDeadLetter
func (mr *MockSendQueueRepositoryMockRecorder) MoveToDeadLetter(ctx, job, finalError, stacktrace interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MoveToDeadLetter", reflect.TypeOf((*MockSendQueueRepository)(nil).MoveToDeadLetter), ctx, job, finalError, stacktrace)
}

// ReleaseStuck mocks base method
func (m *MockSendQueueRepository) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReleaseStuck", ctx, olderThan)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ReleaseStuck indicates an expected call of ReleaseStuck
func (mr *MockSendQueueRepositoryMockRecorder) ReleaseStuck(ctx, olderThan interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReleaseStuck", reflect.TypeOf((*MockSendQueueRepository)(nil).ReleaseStuck), ctx, olderThan)
}

// GetStats mocks base method
func (m *MockSendQueueRepository) GetStats(ctx context.Context) (*domain.SendQueueStats, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetStats", ctx)
	ret0, _ := ret[0].(*domain.SendQueueStats)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetStats indicates an expected call of GetStats
func (mr *MockSendQueueRepositoryMockRecorder) GetStats(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetStats", reflect.TypeOf((*MockSendQueueRepository)(nil).GetStats), ctx)
}
