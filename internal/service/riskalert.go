package service

import (
	"time"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
	"HibiscusGuard/pkg/logger"
	"HibiscusGuard/pkg/metrics"

	"go.uber.org/zap"
)

// RiskAlertService 限时风险区。过期清理由定时任务调用ExpireOld完成
type RiskAlertService struct {
	stores     *store.Stores
	defaultTTL time.Duration
}

// NewRiskAlertService creates the risk alert service.
func NewRiskAlertService(stores *store.Stores, defaultTTL time.Duration) *RiskAlertService {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &RiskAlertService{stores: stores, defaultTTL: defaultTTL}
}

// Create stores a risk alert. A zero expiry gets the default TTL from now.
func (s *RiskAlertService) Create(ra *models.RiskAlert) (*models.RiskAlert, error) {
	if ra.RadiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("risk alert radius must be positive")
	}
	if ra.RiskLevel.Rank() < 0 {
		return nil, errors.InvalidArgumentf("unknown risk level: %s", ra.RiskLevel)
	}
	if ra.ExpiresAt.IsZero() {
		ra.ExpiresAt = time.Now().Add(s.defaultTTL)
	}

	if err := s.stores.RiskAlerts.Save(ra); err != nil {
		return nil, err
	}
	return ra, nil
}

// FindByID returns the risk alert.
func (s *RiskAlertService) FindByID(id string) (*models.RiskAlert, error) {
	return s.stores.RiskAlerts.FindByID(id)
}

// FindActiveNear returns unexpired risk alerts within radiusMeters of the
// point, optionally filtered to levels at least minLevel.
func (s *RiskAlertService) FindActiveNear(center geo.Point, radiusMeters float64, minLevel models.RiskLevel) ([]models.RiskAlert, error) {
	if radiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("radius must be positive")
	}

	active, err := s.stores.RiskAlerts.FindActiveNear(time.Now(), center, radiusMeters)
	if err != nil {
		return nil, err
	}
	if minLevel == "" {
		return active, nil
	}
	if minLevel.Rank() < 0 {
		return nil, errors.InvalidArgumentf("unknown risk level: %s", minLevel)
	}

	filtered := active[:0]
	for _, ra := range active {
		if ra.RiskLevel.AtLeast(minLevel) {
			filtered = append(filtered, ra)
		}
	}
	return filtered, nil
}

// FindByLevel 按精确等级查询
func (s *RiskAlertService) FindByLevel(level models.RiskLevel) ([]models.RiskAlert, error) {
	if level.Rank() < 0 {
		return nil, errors.InvalidArgumentf("unknown risk level: %s", level)
	}
	return s.stores.RiskAlerts.FindByLevel(level)
}

// Delete removes a risk alert before it expires.
func (s *RiskAlertService) Delete(id string) error {
	return s.stores.RiskAlerts.DeleteByID(id)
}

// ExpireOld deletes every risk alert whose expiry is strictly before a
// single wall clock reading. Safe to run concurrently and repeatedly; a run
// with nothing to delete is a no-op.
func (s *RiskAlertService) ExpireOld() (int, error) {
	now := time.Now()
	n, err := s.stores.RiskAlerts.DeleteExpired(now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.RiskAlertsExpired(n)
		logger.Info("已清理过期风险警报", zap.Int("count", n))
	}
	return n, nil
}
