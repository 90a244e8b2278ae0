package mocks

import (
	"reflect"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/golang/mock/gomock"
)

// MockSESClient is a mock of SESClient interface
type MockSESClient struct {
	ctrl     *gomock.Controller
	recorder *MockSESClientMockRecorder
}

// MockSESClientMockRecorder is the mock recorder for MockSESClient
type MockSESClientMockRecorder struct {
	mock *MockSESClient
}

// NewMockSESClient creates a new mock instance
func NewMockSESClient(ctrl *gomock.Controller) *MockSESClient {
	mock := &MockSESClient{ctrl: ctrl}
	mock.recorder = &MockSESClientMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSESClient) EXPECT() *MockSESClientMockRecorder {
	return m.recorder
}

// SendEmailWithContext mocks base method
func (m *MockSESClient) SendEmailWithContext(ctx aws.Context, input *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error) {
	m.ctrl.T.Helper()
	varargs := []interface{}{ctx, input}
	for _, a := range opts {
		varargs = append(varargs, a)
	}
	ret := m.ctrl.Call(m, "SendEmailWithContext", varargs...)
	ret0, _ := ret[0].(*ses.SendEmailOutput)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SendEmailWithContext indicates an expected call of SendEmailWithContext
func (mr *MockSESClientMockRecorder) SendEmailWithContext(ctx, input interface{}, opts ...interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	varargs := append([]interface{}{ctx, input}, opts...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendEmailWithContext", reflect.TypeOf((*MockSESClient)(nil).SendEmailWithContext), varargs...)
}

// GetSendQuotaWithContext mocks base method
func (m *MockSESClient) GetSendQuotaWithContext(ctx aws.Context, input *ses.GetSendQuotaInput, opts ...request.Option) (*ses.GetSendQuotaOutput, error) {
	m.ctrl.T.Helper()
	varargs := []interface{}{ctx, input}
	for _, a := range opts {
		varargs = append(varargs, a)
	}
	ret := m.ctrl.Call(m, "GetSendQuotaWithContext", varargs...)
	ret0, _ := ret[0].(*ses.GetSendQuotaOutput)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetSendQuotaWithContext indicates an expected call of GetSendQuotaWithContext
func (mr *MockSESClientMockRecorder) GetSendQuotaWithContext(ctx, input interface{}, opts ...interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	varargs := append([]interface{}{ctx, input}, opts...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSendQuotaWithContext", reflect.TypeOf((*MockSESClient)(nil).GetSendQuotaWithContext), varargs...)
}

// GetIdentityVerificationAttributesWithContext mocks base method
func (m *MockSESClient) GetIdentityVerificationAttributesWithContext(ctx aws.Context, input *ses.GetIdentityVerificationAttributesInput, opts ...request.Option) (*ses.GetIdentityVerificationAttributesOutput, error) {
	m.ctrl.T.Helper()
	varargs := []interface{}{ctx, input}
	for _, a := range opts {
		varargs = append(varargs, a)
	}
	ret := m.ctrl.Call(m, "GetIdentityVerificationAttributesWithContext", varargs...)
	ret0, _ := ret[0].(*ses.GetIdentityVerificationAttributesOutput)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetIdentityVerificationAttributesWithContext indicates an expected call of GetIdentityVerificationAttributesWithContext
func (mr *MockSESClientMockRecorder) GetIdentityVerificationAttributesWithContext(ctx, input interface{}, opts ...interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	varargs := append([]interface{}{ctx, input}, opts...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetIdentityVerificationAttributesWithContext", reflect.TypeOf((*MockSESClient)(nil).GetIdentityVerificationAttributesWithContext), varargs...)
}
