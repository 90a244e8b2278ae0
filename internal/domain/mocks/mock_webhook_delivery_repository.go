package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockWebhookDeliveryRepository is a mock of WebhookDeliveryRepository interface
type MockWebhookDeliveryRepository struct {
	ctrl     *gomock.Controller
	recorder *MockWebhookDeliveryRepositoryMockRecorder
}

// MockWebhookDeliveryRepositoryMockRecorder is the mock recorder for MockWebhookDeliveryRepository
type MockWebhookDeliveryRepositoryMockRecorder struct {
	mock *MockWebhookDeliveryRepository
}

// NewMockWebhookDeliveryRepository creates a new mock instance
func NewMockWebhookDeliveryRepository(ctrl *gomock.Controller) *MockWebhookDeliveryRepository {
	mock := &MockWebhookDeliveryRepository{ctrl: ctrl}
	mock.recorder = &MockWebhookDeliveryRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockWebhookDeliveryRepository) EXPECT() *MockWebhookDeliveryRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockWebhookDeliveryRepository) Create(ctx context.Context, delivery *domain.WebhookDelivery) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, delivery)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockWebhookDeliveryRepositoryMockRecorder) Create(ctx, delivery interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockWebhookDeliveryRepository)(nil).Create), ctx, delivery)
}

// FetchDue mocks base method
func (m *MockWebhookDeliveryRepository) FetchDue(ctx context.Context, limit int) ([]*domain.WebhookDelivery, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchDue", ctx, limit)
	ret0, _ := ret[0].([]*domain.WebhookDelivery)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchDue indicates an expected call of FetchDue
func (mr *MockWebhookDeliveryRepositoryMockRecorder) FetchDue(ctx, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchDue", reflect.TypeOf((*MockWebhookDeliveryRepository)(nil).FetchDue), ctx, limit)
}

// MarkSuccess mocks base method
func (m *MockWebhookDeliveryRepository) MarkSuccess(ctx context.Context, id string, responseCode int, responseBody string, deliveredAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkSuccess", ctx, id, responseCode, responseBody, deliveredAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkSuccess indicates an expected call of MarkSuccess
func (mr *MockWebhookDeliveryRepositoryMockRecorder) MarkSuccess(ctx, id, responseCode, responseBody, deliveredAt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkSuccess", reflect.TypeOf((*MockWebhookDeliveryRepository)(nil).MarkSuccess), ctx, id, responseCode, responseBody, deliveredAt)
}

// MarkRetrying mocks base method
func (m *MockWebhookDeliveryRepository) MarkRetrying(ctx context.Context, id string, responseCode *int, responseBody *string, nextRetryAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkRetrying", ctx, id, responseCode, responseBody, nextRetryAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkRetrying indicates an expected call of MarkRetrying
func (mr *MockWebhookDeliveryRepositoryMockRecorder) MarkRetrying(ctx, id, responseCode, responseBody, nextRetryAt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkRetrying", reflect.TypeOf((*MockWebhookDeliveryRepository)(nil).MarkRetrying), ctx, id, responseCode, responseBody, nextRetryAt)
}

// MarkFailed mocks base method
func (m *MockWebhookDeliveryRepository) MarkFailed(ctx context.Context, id string, responseCode *int, responseBody *string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkFailed", ctx, id, responseCode, responseBody)
	ret0, _ := ret[0].(error)
	return ret0
}

// MarkFailed indicates an expected call of MarkFailed
func (mr *MockWebhookDeliveryRepositoryMockRecorder) MarkFailed(ctx, id, responseCode, responseBody interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkFailed", reflect.TypeOf((*MockWebhookDeliveryRepository)(nil).MarkFailed), ctx, id, responseCode, responseBody)
}
