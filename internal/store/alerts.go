package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
)

// AlertStore 警报仓储。响应日志独立成表，追加就是插一行
type AlertStore struct {
	db *gorm.DB
}

// Save persists the alert, assigning an ID on first save.
func (s *AlertStore) Save(alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if err := s.db.Save(alert).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save alert")
	}
	return nil
}

// FindByID loads the alert together with its response log in sequence order.
func (s *AlertStore) FindByID(id string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.Preload("Responses", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).First(&alert, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("alert not found: %s", id)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find alert")
	}
	return &alert, nil
}

// FindByOwner 按创建者查询，最新在前
func (s *AlertStore) FindByOwner(userID string) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&alerts).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find alerts by owner")
	}
	return alerts, nil
}

// FindByGroup 按组查询
func (s *AlertStore) FindByGroup(groupID string) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.Where("group_id = ?", groupID).Order("created_at DESC").Find(&alerts).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find alerts by group")
	}
	return alerts, nil
}

// FindNear returns alerts within radiusMeters of the point.
func (s *AlertStore) FindNear(center geo.Point, radiusMeters float64) ([]models.Alert, error) {
	var alerts []models.Alert
	q := withinBox(s.db, "loc_lat", "loc_lon", center, radiusMeters)
	if err := q.Find(&alerts).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find alerts near")
	}
	return filterByDistance(alerts, func(a models.Alert) geo.Point {
		return geo.Point{Lat: a.Location.Lat, Lon: a.Location.Lon}
	}, center, radiusMeters), nil
}

// AppendResponse inserts one response row. Concurrent appenders each insert
// their own row, so no response can overwrite another.
func (s *AlertStore) AppendResponse(resp *models.AlertResponse) error {
	if resp.Timestamp.IsZero() {
		resp.Timestamp = time.Now()
	}
	if err := s.db.Create(resp).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "append alert response")
	}
	return nil
}

// UpdateStatus 只改状态与更新时间，不整对象回写
func (s *AlertStore) UpdateStatus(id string, status models.AlertStatus) error {
	res := s.db.Model(&models.Alert{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, res.Error, "update alert status")
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("alert not found: %s", id)
	}
	return nil
}

// ExistsByID reports whether the alert exists.
func (s *AlertStore) ExistsByID(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Alert{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.WrapCode(errors.CodeStoreUnavailable, err, "alert exists")
	}
	return count > 0, nil
}

// DeleteByID removes the alert and its response log.
func (s *AlertStore) DeleteByID(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.AlertResponse{}, "alert_id = ?", id).Error; err != nil {
			return errors.WrapCode(errors.CodeStoreUnavailable, err, "delete alert responses")
		}
		if err := tx.Delete(&models.Alert{}, "id = ?", id).Error; err != nil {
			return errors.WrapCode(errors.CodeStoreUnavailable, err, "delete alert")
		}
		return nil
	})
}
