package service

import (
	"context"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
)

// poolTypeFallbackOrder is tried when the caller names no fallback type.
var poolTypeFallbackOrder = []domain.IPPoolType{
	domain.IPPoolTypeShared,
	domain.IPPoolTypeTransactional,
	domain.IPPoolTypeMarketing,
}

// PoolSelection describes what the caller wants from the selector. An
// explicitly requested pool wins when it exists and is active; otherwise
// selection falls back by pool type.
type PoolSelection struct {
	TenantID        string
	RequestedPoolID string
	FallbackType    domain.IPPoolType
}

// IPPoolService picks the sending pool for a job. A nil pool with a nil
// error means nothing matched; sending proceeds without pool affinity.
type IPPoolService struct {
	repo   domain.IPPoolRepository
	logger logger.Logger
}

func NewIPPoolService(repo domain.IPPoolRepository, log logger.Logger) *IPPoolService {
	return &IPPoolService{repo: repo, logger: log}
}

func (s *IPPoolService) SelectPool(ctx context.Context, sel PoolSelection) (*domain.IPPool, error) {
	if sel.RequestedPoolID != "" {
		pool, err := s.repo.GetByID(ctx, sel.RequestedPoolID)
		switch {
		case err == nil && pool.IsActive:
			return pool, nil
		case err != nil && !domain.IsNotFound(err):
			return nil, err
		}
		s.logger.WithFields(map[string]interface{}{
			"tenant_id": sel.TenantID,
			"pool_id":   sel.RequestedPoolID,
		}).Warn("Requested IP pool unavailable, falling back by type")
	}

	candidates := poolTypeFallbackOrder
	if sel.FallbackType != "" {
		candidates = []domain.IPPoolType{sel.FallbackType}
	}

	for _, poolType := range candidates {
		pool, err := s.repo.GetBestActiveByType(ctx, poolType)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return pool, nil
	}

	return nil, nil
}
