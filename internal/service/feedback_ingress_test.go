package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/domain/mocks"
	"github.com/sendgate/sendgate/pkg/logger"
)

func TestFeedbackIngress_HandleMessage(t *testing.T) {
	t.Run("DSN report is classified and queued", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)

		var captured *domain.FeedbackQueueEntry
		queue.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, entry *domain.FeedbackQueueEntry) error {
				captured = entry
				return nil
			})

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleMessage("", []string{"fbq+m1@bounce.tenant.com"}, []byte(dsnReportFixture))
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, domain.ProviderKindSMTP, captured.Provider)
		assert.Equal(t, domain.FeedbackEventBounce, captured.Event.Type)
		assert.Equal(t, "outbox-001@mail.tenant.com", captured.Event.MessageID)
		assert.Equal(t, dsnReportFixture, captured.RawPayload)
	})

	t.Run("ARF report is classified as complaint", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)

		var captured *domain.FeedbackQueueEntry
		queue.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, entry *domain.FeedbackQueueEntry) error {
				captured = entry
				return nil
			})

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleMessage("complaints@isp.example.net", []string{"abuse@bounce.tenant.com"}, []byte(arfReportFixture))
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, domain.FeedbackEventComplaint, captured.Event.Type)
		assert.Equal(t, "outbox-002@mail.tenant.com", captured.Event.MessageID)
	})

	t.Run("unparseable mail is queued as unknown", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)

		var captured *domain.FeedbackQueueEntry
		queue.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, entry *domain.FeedbackQueueEntry) error {
				captured = entry
				return nil
			})

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleMessage("someone@example.net", []string{"fbq@bounce.tenant.com"}, []byte("not a report at all"))
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, domain.FeedbackEventUnknown, captured.Event.Type)
		assert.Equal(t, "not a report at all", captured.RawPayload)
	})

	t.Run("queue failure propagates to the SMTP session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)
		queue.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			Return(errors.New("connection refused"))

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleMessage("", []string{"fbq@bounce.tenant.com"}, []byte(dsnReportFixture))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFeedbackQueue))
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestFeedbackIngress_HandleSES(t *testing.T) {
	ctx := context.Background()

	t.Run("bounce notification is queued", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)

		var captured *domain.FeedbackQueueEntry
		queue.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, entry *domain.FeedbackQueueEntry) error {
				captured = entry
				return nil
			})

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleSES(ctx, []byte(sesBounceNotification))
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, domain.ProviderKindSES, captured.Provider)
		assert.Equal(t, domain.FeedbackEventBounce, captured.Event.Type)
		assert.Equal(t, "ses-msg-001", captured.Event.MessageID)
	})

	t.Run("SNS handshake is not queued", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		payload := `{"Type": "SubscriptionConfirmation", "SubscribeURL": "https://sns.example.com/confirm"}`
		err := ingress.HandleSES(ctx, []byte(payload))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFeedback))
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleSES(ctx, []byte("{broken"))
		require.Error(t, err)
	})

	t.Run("queue failure propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		queue := mocks.NewMockFeedbackQueueRepository(ctrl)
		queue.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			Return(errors.New("connection refused"))

		log := logger.NewTestLogger(t)
		ingress := NewFeedbackIngress(queue, NewFeedbackNormalizer(log), log)

		err := ingress.HandleSES(ctx, []byte(sesBounceNotification))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFeedbackQueue))
		assert.Contains(t, err.Error(), "connection refused")
	})
}
