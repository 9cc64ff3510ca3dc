package service

import (
	"HibiscusGuard/internal/classifier"
	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/logger"
	"HibiscusGuard/pkg/metrics"

	"go.uber.org/zap"
)

// EventService 事件摄入。一次摄入最多产出一条警报，
// 位置更新与风险区提示独立于分类结果
type EventService struct {
	stores     *store.Stores
	dispatcher *fanout.Dispatcher
	alerts     *AlertService
}

// NewEventService creates the event service.
func NewEventService(stores *store.Stores, dispatcher *fanout.Dispatcher, alerts *AlertService) *EventService {
	return &EventService{stores: stores, dispatcher: dispatcher, alerts: alerts}
}

// IngestResult 摄入结果，Alert在未触发分类时为nil
type IngestResult struct {
	Event *models.Event `json:"event"`
	Alert *models.Alert `json:"alert,omitempty"`
}

// Ingest persists the raw event and runs it through classification. A draft
// becomes a stored, broadcast alert; ENTER_RISK_AREA events push a one-shot
// notice to the user's private channel; any event carrying a location also
// refreshes the user's last known position and fans it out.
func (s *EventService) Ingest(event *models.Event) (*IngestResult, error) {
	if event.UserID == "" {
		return nil, errors.InvalidArgumentf("event user id is required")
	}
	if event.Confidence < 0 || event.Confidence > 1 {
		return nil, errors.InvalidArgumentf("confidence must be within [0,1]")
	}

	if err := s.stores.Events.Save(event); err != nil {
		return nil, err
	}
	metrics.EventIngested(string(event.EventType))

	result := &IngestResult{Event: event}

	if draft, ok := classifier.Classify(*event); ok {
		alert, err := s.alerts.Create(draft.UserID, CreateAlertInput{
			AlertType: draft.AlertType,
			Message:   draft.Message,
			Location:  draft.Location,
		})
		if err != nil {
			return nil, err
		}
		result.Alert = alert
	}

	if classifier.NotifiesRiskArea(*event) {
		s.dispatcher.SendSystemNotification(event.UserID, classifier.RiskAreaNotice)
	}

	// 带位置的事件无条件刷新最近位置
	if !event.Location.IsZero() {
		if err := s.stores.Users.UpdateLastKnownLocation(event.UserID, event.Location); err != nil {
			logger.Warn("更新最近位置失败", zap.String("user_id", event.UserID), zap.Error(err))
		} else {
			s.dispatcher.SendLocationUpdate(event.UserID, event.Location)
		}
	}

	logger.Debug("事件已摄入",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.EventType)),
		zap.Bool("alert_created", result.Alert != nil))
	return result, nil
}

// FindByID returns the stored event.
func (s *EventService) FindByID(id string) (*models.Event, error) {
	return s.stores.Events.FindByID(id)
}

// FindByOwner 用户的事件历史
func (s *EventService) FindByOwner(userID string) ([]models.Event, error) {
	return s.stores.Events.FindByOwner(userID)
}

// FindRecentByOwner 最近N条事件
func (s *EventService) FindRecentByOwner(userID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.stores.Events.FindRecentByOwner(userID, limit)
}
