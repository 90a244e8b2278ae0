package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/sendgate/sendgate/internal/domain"
)

// MockWebhookRepository is a mock of WebhookRepository interface
type MockWebhookRepository struct {
	ctrl     *gomock.Controller
	recorder *MockWebhookRepositoryMockRecorder
}

// MockWebhookRepositoryMockRecorder is the mock recorder for MockWebhookRepository
type MockWebhookRepositoryMockRecorder struct {
	mock *MockWebhookRepository
}

// NewMockWebhookRepository creates a new mock instance
func NewMockWebhookRepository(ctrl *gomock.Controller) *MockWebhookRepository {
	mock := &MockWebhookRepository{ctrl: ctrl}
	mock.recorder = &MockWebhookRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockWebhookRepository) EXPECT() *MockWebhookRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method
func (m *MockWebhookRepository) GetByID(ctx context.Context, id string) (*domain.Webhook, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, id)
	ret0, _ := ret[0].(*domain.Webhook)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockWebhookRepositoryMockRecorder) GetByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockWebhookRepository)(nil).GetByID), ctx, id)
}

// ListActiveForEvent mocks base method
func (m *MockWebhookRepository) ListActiveForEvent(ctx context.Context, tenantID, eventType string) ([]*domain.Webhook, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListActiveForEvent", ctx, tenantID, eventType)
	ret0, _ := ret[0].([]*domain.Webhook)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListActiveForEvent indicates an expected call of ListActiveForEvent
func (mr *MockWebhookRepositoryMockRecorder) ListActiveForEvent(ctx, tenantID, eventType interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListActiveForEvent", reflect.TypeOf((*MockWebhookRepository)(nil).ListActiveForEvent), ctx, tenantID, eventType)
}
