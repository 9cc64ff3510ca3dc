package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
)

// RiskAlertStore 风险区仓储
type RiskAlertStore struct {
	db *gorm.DB
}

// Save persists the risk alert, assigning an ID on first save.
func (s *RiskAlertStore) Save(ra *models.RiskAlert) error {
	if ra.ID == "" {
		ra.ID = uuid.NewString()
	}
	if err := s.db.Save(ra).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save risk alert")
	}
	return nil
}

// FindByID returns the risk alert or a CodeNotFound error.
func (s *RiskAlertStore) FindByID(id string) (*models.RiskAlert, error) {
	var ra models.RiskAlert
	err := s.db.First(&ra, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("risk alert not found: %s", id)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find risk alert")
	}
	return &ra, nil
}

// FindActiveNear returns unexpired risk alerts within the radius, most severe
// first. now 由调用方一次读取传入，整个查询用同一时刻
func (s *RiskAlertStore) FindActiveNear(now time.Time, center geo.Point, radiusMeters float64) ([]models.RiskAlert, error) {
	var alerts []models.RiskAlert
	q := withinBox(s.db.Where("expires_at > ?", now), "lat", "lon", center, radiusMeters)
	if err := q.Find(&alerts).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find active risk alerts near")
	}
	return filterByDistance(alerts, func(r models.RiskAlert) geo.Point {
		return geo.Point{Lat: r.Lat, Lon: r.Lon}
	}, center, radiusMeters), nil
}

// FindByLevel 按风险等级查询
func (s *RiskAlertStore) FindByLevel(level models.RiskLevel) ([]models.RiskAlert, error) {
	var alerts []models.RiskAlert
	if err := s.db.Where("risk_level = ?", level).Find(&alerts).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find risk alerts by level")
	}
	return alerts, nil
}

// DeleteExpired removes every risk alert with expiresAt before now and
// returns the number removed. Safe to re-run: the residual set only shrinks.
func (s *RiskAlertStore) DeleteExpired(now time.Time) (int, error) {
	res := s.db.Delete(&models.RiskAlert{}, "expires_at < ?", now)
	if res.Error != nil {
		return 0, errors.WrapCode(errors.CodeStoreUnavailable, res.Error, "delete expired risk alerts")
	}
	return int(res.RowsAffected), nil
}

// DeleteByID removes the risk alert (explicit admin action).
func (s *RiskAlertStore) DeleteByID(id string) error {
	if err := s.db.Delete(&models.RiskAlert{}, "id = ?", id).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "delete risk alert")
	}
	return nil
}
