package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
)

// EventStore 事件仓储。事件写入后不可变
type EventStore struct {
	db *gorm.DB
}

// Save persists the event, assigning ID and timestamp when missing.
func (s *EventStore) Save(event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.db.Create(event).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save event")
	}
	return nil
}

// FindByID returns the event or a CodeNotFound error.
func (s *EventStore) FindByID(id string) (*models.Event, error) {
	var event models.Event
	err := s.db.First(&event, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("event not found: %s", id)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find event")
	}
	return &event, nil
}

// FindByOwner 按用户查询，最新在前
func (s *EventStore) FindByOwner(userID string) ([]models.Event, error) {
	var events []models.Event
	err := s.db.Where("user_id = ?", userID).Order("timestamp DESC").Find(&events).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find events by owner")
	}
	return events, nil
}

// FindRecentByOwner 取最近N条
func (s *EventStore) FindRecentByOwner(userID string, limit int) ([]models.Event, error) {
	var events []models.Event
	err := s.db.Where("user_id = ?", userID).Order("timestamp DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find recent events")
	}
	return events, nil
}

// DeleteOlderThan removes events whose timestamp precedes the cutoff and
// returns the number removed.
func (s *EventStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	res := s.db.Delete(&models.Event{}, "timestamp < ?", cutoff)
	if res.Error != nil {
		return 0, errors.WrapCode(errors.CodeStoreUnavailable, res.Error, "delete old events")
	}
	return int(res.RowsAffected), nil
}
