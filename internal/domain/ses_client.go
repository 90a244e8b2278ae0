package domain

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
)

//go:generate mockgen -destination mocks/mock_ses_client.go -package mocks github.com/sendgate/sendgate/internal/domain SESClient

// SESClient is the slice of the AWS SES API the gateway calls. Drivers are
// constructed with a client factory so tests inject a fake without an AWS
// session.
type SESClient interface {
	SendEmailWithContext(ctx aws.Context, input *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error)
	GetSendQuotaWithContext(ctx aws.Context, input *ses.GetSendQuotaInput, opts ...request.Option) (*ses.GetSendQuotaOutput, error)
	GetIdentityVerificationAttributesWithContext(ctx aws.Context, input *ses.GetIdentityVerificationAttributesInput, opts ...request.Option) (*ses.GetIdentityVerificationAttributesOutput, error)
}
