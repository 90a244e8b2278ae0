package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockEmailLogRepository is a mock of EmailLogRepository interface
type MockEmailLogRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEmailLogRepositoryMockRecorder
}

// MockEmailLogRepositoryMockRecorder is the mock recorder for MockEmailLogRepository
type MockEmailLogRepositoryMockRecorder struct {
	mock *MockEmailLogRepository
}

// NewMockEmailLogRepository creates a new mock instance
func NewMockEmailLogRepository(ctrl *gomock.Controller) *MockEmailLogRepository {
	mock := &MockEmailLogRepository{ctrl: ctrl}
	mock.recorder = &MockEmailLogRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockEmailLogRepository) EXPECT() *MockEmailLogRepositoryMockRecorder {
	return m.recorder
}

// Upsert mocks base method
func (m *MockEmailLogRepository) Upsert(ctx context.Context, log *domain.EmailLog) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, log)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockEmailLogRepositoryMockRecorder) Upsert(ctx, log interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockEmailLogRepository)(nil).Upsert), ctx, log)
}

// GetByOutboxID mocks base method
func (m *MockEmailLogRepository) GetByOutboxID(ctx context.Context, outboxID string) (*domain.EmailLog, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByOutboxID", ctx, outboxID)
	ret0, _ := ret[0].(*domain.EmailLog)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByOutboxID indicates an expected call of GetByOutboxID
func (mr *MockEmailLogRepositoryMockRecorder) GetByOutboxID(ctx, outboxID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByOutboxID", reflect.TypeOf((*MockEmailLogRepository)(nil).GetByOutboxID), ctx, outboxID)
}

// GetByProviderMessageID mocks base method
func (m *MockEmailLogRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.EmailLog, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByProviderMessageID", ctx, providerMessageID)
	ret0, _ := ret[0].(*domain.EmailLog)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByProviderMessageID indicates an expected call of GetByProviderMessageID
func (mr *MockEmailLogRepositoryMockRecorder) GetByProviderMessageID(ctx, providerMessageID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByProviderMessageID", reflect.TypeOf((*MockEmailLogRepository)(nil).GetByProviderMessageID), ctx, providerMessageID)
}

// SetDelivered mocks base method
func (m *MockEmailLogRepository) SetDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetDelivered", ctx, id, deliveredAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// SetDelivered indicates an expected call of SetDelivered
func (mr *MockEmailLogRepositoryMockRecorder) SetDelivered(ctx, id, deliveredAt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetDelivered", reflect.TypeOf((*MockEmailLogRepository)(nil).SetDelivered), ctx, id, deliveredAt)
}

// SetBounce mocks base method
func (m *MockEmailLogRepository) SetBounce(ctx context.Context, id, bounceType, bounceSubtype, errorCode, errorReason string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetBounce", ctx, id, bounceType, bounceSubtype, errorCode, errorReason)
	ret0, _ := ret[0].(error)
	return ret0
}

// SetBounce indicates an expected call of SetBounce
func (mr *MockEmailLogRepositoryMockRecorder) SetBounce(ctx, id, bounceType, bounceSubtype, errorCode, errorReason interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetBounce", reflect.TypeOf((*MockEmailLogRepository)(nil).SetBounce), ctx, id, bounceType, bounceSubtype, errorCode, errorReason)
}

// SetComplaint mocks base method
func (m *MockEmailLogRepository) SetComplaint(ctx context.Context, id, feedbackType string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetComplaint", ctx, id, feedbackType)
	ret0, _ := ret[0].(error)
	return ret0
}

// SetComplaint indicates an expected call of SetComplaint
func (mr *MockEmailLogRepositoryMockRecorder) SetComplaint(ctx, id, feedbackType interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetComplaint", reflect.TypeOf((*MockEmailLogRepository)(nil).SetComplaint), ctx, id, feedbackType)
}

// AggregateSince mocks base method
func (m *MockEmailLogRepository) AggregateSince(ctx context.Context, tenantID string, since time.Time) (*domain.TenantSendAggregates, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AggregateSince", ctx, tenantID, since)
	ret0, _ := ret[0].(*domain.TenantSendAggregates)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// AggregateSince indicates an expected call of AggregateSince
func (mr *MockEmailLogRepositoryMockRecorder) AggregateSince(ctx, tenantID, since interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AggregateSince", reflect.TypeOf((*MockEmailLogRepository)(nil).AggregateSince), ctx, tenantID, since)
}

// CountSent mocks base method
func (m *MockEmailLogRepository) CountSent(ctx context.Context, tenantID string) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountSent", ctx, tenantID)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountSent indicates an expected call of CountSent
func (mr *MockEmailLogRepositoryMockRecorder) CountSent(ctx, tenantID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountSent", reflect.TypeOf((*MockEmailLogRepository)(nil).CountSent), ctx, tenantID)
}
