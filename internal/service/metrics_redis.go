package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sendgate/sendgate/internal/domain"
)

const (
	metricsSuccessKeyPrefix  = "pipeline:success:"
	metricsFailureKeyPrefix  = "pipeline:failure:"
	metricsQueueAgeKeyPrefix = "pipeline:queue_age:"

	// Buckets live well past the widest snapshot window so a snapshot
	// never races an expiry.
	metricsBucketTTL = 10 * time.Minute
)

// RedisPipelineMetrics keeps pipeline health in one-minute Redis buckets:
// plain counters for successes and failures, a sorted set of millisecond
// queue ages for the p95. Every worker instance writes to the same buckets
// so the SLO controller sees the whole fleet.
type RedisPipelineMetrics struct {
	redis redis.Cmdable
	clock func() time.Time
}

func NewRedisPipelineMetrics(client redis.Cmdable) *RedisPipelineMetrics {
	return &RedisPipelineMetrics{
		redis: client,
		clock: time.Now,
	}
}

func (m *RedisPipelineMetrics) RecordSuccess(ctx context.Context) error {
	return m.incrBucket(ctx, metricsSuccessKeyPrefix)
}

func (m *RedisPipelineMetrics) RecordFailure(ctx context.Context) error {
	return m.incrBucket(ctx, metricsFailureKeyPrefix)
}

func (m *RedisPipelineMetrics) incrBucket(ctx context.Context, prefix string) error {
	key := fmt.Sprintf("%s%d", prefix, m.minute())

	pipe := m.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, metricsBucketTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (m *RedisPipelineMetrics) RecordQueueAge(ctx context.Context, age time.Duration) error {
	key := fmt.Sprintf("%s%d", metricsQueueAgeKeyPrefix, m.minute())

	pipe := m.redis.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(age.Milliseconds()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, metricsBucketTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot aggregates the buckets covering the window, newest first. The
// current partial minute always counts as one bucket.
func (m *RedisPipelineMetrics) Snapshot(ctx context.Context, window time.Duration) (*domain.MetricsSnapshot, error) {
	buckets := int(window / time.Minute)
	if buckets < 1 {
		buckets = 1
	}
	current := m.minute()

	pipe := m.redis.Pipeline()
	successCmds := make([]*redis.StringCmd, 0, buckets)
	failureCmds := make([]*redis.StringCmd, 0, buckets)
	ageCmds := make([]*redis.ZSliceCmd, 0, buckets)
	for i := 0; i < buckets; i++ {
		minute := current - int64(i)
		successCmds = append(successCmds, pipe.Get(ctx, fmt.Sprintf("%s%d", metricsSuccessKeyPrefix, minute)))
		failureCmds = append(failureCmds, pipe.Get(ctx, fmt.Sprintf("%s%d", metricsFailureKeyPrefix, minute)))
		ageCmds = append(ageCmds, pipe.ZRangeWithScores(ctx, fmt.Sprintf("%s%d", metricsQueueAgeKeyPrefix, minute), 0, -1))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read metric buckets: %w", err)
	}

	snapshot := &domain.MetricsSnapshot{}
	for _, cmd := range successCmds {
		if n, err := cmd.Int64(); err == nil {
			snapshot.Successes += n
		}
	}
	for _, cmd := range failureCmds {
		if n, err := cmd.Int64(); err == nil {
			snapshot.Failures += n
		}
	}

	var ages []float64
	for _, cmd := range ageCmds {
		for _, member := range cmd.Val() {
			ages = append(ages, member.Score)
		}
	}
	snapshot.QueueAgeP95 = percentileMillis(ages, 0.95)

	if total := snapshot.Successes + snapshot.Failures; total > 0 {
		snapshot.ErrorRate = float64(snapshot.Failures) / float64(total)
	}
	return snapshot, nil
}

func (m *RedisPipelineMetrics) minute() int64 {
	return m.clock().Unix() / 60
}

func percentileMillis(values []float64, p float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	idx := int(math.Ceil(float64(len(values))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return time.Duration(values[idx]) * time.Millisecond
}
