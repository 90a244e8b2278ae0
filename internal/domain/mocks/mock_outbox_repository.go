package mocks

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockOutboxRepository is a mock of OutboxRepository interface
type MockOutboxRepository struct {
	ctrl     *gomock.Controller
	recorder *MockOutboxRepositoryMockRecorder
}

// MockOutboxRepositoryMockRecorder is the mock recorder for MockOutboxRepository
type MockOutboxRepositoryMockRecorder struct {
	mock *MockOutboxRepository
}

// NewMockOutboxRepository creates a new mock instance
func NewMockOutboxRepository(ctrl *gomock.Controller) *MockOutboxRepository {
	mock := &MockOutboxRepository{ctrl: ctrl}
	mock.recorder = &MockOutboxRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockOutboxRepository) EXPECT() *MockOutboxRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockOutboxRepository) Create(ctx context.Context, entry *domain.OutboxEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockOutboxRepositoryMockRecorder) Create(ctx, entry interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockOutboxRepository)(nil).Create), ctx, entry)
}

// CreateTx mocks base method
func (m *MockOutboxRepository) CreateTx(ctx context.Context, tx *sql.Tx, entry *domain.OutboxEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateTx", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateTx indicates an expected call of CreateTx
func (mr *MockOutboxRepositoryMockRecorder) CreateTx(ctx, tx, entry interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateTx", reflect.TypeOf((*MockOutboxRepository)(nil).CreateTx), ctx, tx, entry)
}

// CountCreatedSince mocks base method
func (m *MockOutboxRepository) CountCreatedSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountCreatedSince", ctx, tenantID, since)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountCreatedSince indicates an expected call of CountCreatedSince
func (mr *MockOutboxRepositoryMockRecorder) CountCreatedSince(ctx, tenantID, since interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountCreatedSince", reflect.TypeOf((*MockOutboxRepository)(nil).CountCreatedSince), ctx, tenantID, since)
}

// GetByID mocks base method
func (m *MockOutboxRepository) GetByID(ctx context.Context, id string) (*domain.OutboxEntry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.OutboxEntry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockOutboxRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockOutboxRepository)(nil).GetByID), ctx, id)
}

// GetHTML mocks base method
func (m *MockOutboxRepository) GetHTML(ctx context.Context, id string) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetHTML", ctx, id)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetHTML indicates an expected call of GetHTML
func (mr *MockOutboxRepositoryMockRecorder) GetHTML(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetHTML", reflect.TypeOf((*MockOutboxRepository)(nil).GetHTML), ctx, id)
}

// MarkSent mocks base method
func (m *MockOutboxRepository) MarkSent(ctx context.Context, id string, processedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkSent", ctx, id, processedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkSent indicates an expected call of MarkSent
func (mr *MockOutboxRepositoryMockRecorder) MarkSent(ctx, id, processedAt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkSent", reflect.TypeOf((*MockOutboxRepository)(nil).MarkSent), ctx, id, processedAt)
}

// MarkFailed mocks base method
func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkFailed", ctx, id, lastError)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkFailed indicates an expected call of MarkFailed
func (mr *MockOutboxRepositoryMockRecorder) MarkFailed(ctx, id, lastError interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkFailed", reflect.TypeOf((*MockOutboxRepository)(nil).MarkFailed), ctx, id, lastError)
}

// MarkRetrying mocks base method
func (m *MockOutboxRepository) MarkRetrying(ctx context.Context, id, lastError string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkRetrying", ctx, id, lastError)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkRetrying indicates an expected call of MarkRetrying
func (mr *MockOutboxRepositoryMockRecorder) MarkRetrying(ctx, id, lastError interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkRetrying", reflect.TypeOf((*MockOutboxRepository)(nil).MarkRetrying), ctx, id, lastError)
}
