package service

import (
	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
	"HibiscusGuard/pkg/logger"
	"HibiscusGuard/pkg/metrics"

	"go.uber.org/zap"
)

// AlertService 警报生命周期：创建、状态流转、响应追加、删除。
// 每次落库成功后推送对应频道，推送失败不回滚
type AlertService struct {
	stores     *store.Stores
	dispatcher *fanout.Dispatcher
	groups     *GroupService
}

// NewAlertService creates the alert service.
func NewAlertService(stores *store.Stores, dispatcher *fanout.Dispatcher, groups *GroupService) *AlertService {
	return &AlertService{stores: stores, dispatcher: dispatcher, groups: groups}
}

// CreateAlertInput 手动创建警报的入参
type CreateAlertInput struct {
	AlertType models.AlertType
	GroupID   string
	Message   string
	Location  models.Location
	MediaURLs []string
}

// Create creates an alert owned by the actor and broadcasts it. When a group
// is given the actor must belong to it.
func (s *AlertService) Create(actorID string, in CreateAlertInput) (*models.Alert, error) {
	if in.AlertType == "" {
		in.AlertType = models.AlertManual
	}

	if in.GroupID != "" {
		isMember, err := s.groups.IsMember(in.GroupID, actorID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, errors.Forbiddenf("user %s is not a member of group %s", actorID, in.GroupID)
		}
	}

	alert := &models.Alert{
		UserID:    actorID,
		GroupID:   in.GroupID,
		AlertType: in.AlertType,
		Location:  in.Location,
		Status:    models.StatusActive,
		Message:   in.Message,
		MediaURLs: in.MediaURLs,
	}
	if err := s.stores.Alerts.Save(alert); err != nil {
		return nil, err
	}
	metrics.AlertCreated(string(alert.AlertType))

	s.dispatcher.BroadcastAlert(alert)
	logger.Info("警报已创建",
		zap.String("alert_id", alert.ID),
		zap.String("user_id", actorID),
		zap.String("alert_type", string(alert.AlertType)))
	return alert, nil
}

// FindByID returns the alert with its response log.
func (s *AlertService) FindByID(id string) (*models.Alert, error) {
	return s.stores.Alerts.FindByID(id)
}

// FindByOwner 用户自己的警报
func (s *AlertService) FindByOwner(userID string) ([]models.Alert, error) {
	return s.stores.Alerts.FindByOwner(userID)
}

// FindByGroup returns the group's alerts. Members only.
func (s *AlertService) FindByGroup(actorID, groupID string) ([]models.Alert, error) {
	isMember, err := s.groups.IsMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbiddenf("user %s is not a member of group %s", actorID, groupID)
	}
	return s.stores.Alerts.FindByGroup(groupID)
}

// FindNear returns alerts within radiusMeters of the point.
func (s *AlertService) FindNear(center geo.Point, radiusMeters float64) ([]models.Alert, error) {
	if radiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("radius must be positive")
	}
	return s.stores.Alerts.FindNear(center, radiusMeters)
}

// UpdateStatus transitions the alert to the given status. Only the owner may
// change status; any known status value is accepted from any current one.
func (s *AlertService) UpdateStatus(actorID, alertID string, status models.AlertStatus) (*models.Alert, error) {
	if !models.ValidAlertStatus(status) {
		return nil, errors.InvalidArgumentf("unknown alert status: %s", status)
	}

	alert, err := s.stores.Alerts.FindByID(alertID)
	if err != nil {
		return nil, err
	}
	if alert.UserID != actorID {
		return nil, errors.Forbiddenf("only the alert owner can change its status")
	}

	if err := s.stores.Alerts.UpdateStatus(alertID, status); err != nil {
		return nil, err
	}
	alert.Status = status

	s.dispatcher.SendAlertStatusUpdate(alert)
	logger.Info("警报状态已更新",
		zap.String("alert_id", alertID),
		zap.String("status", string(status)))
	return alert, nil
}

// AppendResponseInput 响应追加入参
type AppendResponseInput struct {
	ResponseType models.ResponseType
	Message      string
	Location     models.Location
}

// AppendResponse appends one response row to the alert's log. Any user may
// respond; concurrent responders never overwrite each other.
func (s *AlertService) AppendResponse(actorID, alertID string, in AppendResponseInput) (*models.Alert, error) {
	if in.ResponseType == "" {
		return nil, errors.InvalidArgumentf("response type is required")
	}

	alert, err := s.stores.Alerts.FindByID(alertID)
	if err != nil {
		return nil, err
	}

	resp := &models.AlertResponse{
		AlertID:         alertID,
		ResponderUserID: actorID,
		ResponseType:    in.ResponseType,
		Message:         in.Message,
		Location:        in.Location,
	}
	if err := s.stores.Alerts.AppendResponse(resp); err != nil {
		return nil, err
	}

	// 重新加载带完整响应日志的警报
	alert, err = s.stores.Alerts.FindByID(alertID)
	if err != nil {
		return nil, err
	}

	s.dispatcher.SendAlertResponse(alert, resp)
	return alert, nil
}

// AttachMedia appends uploaded media urls to the alert. Owner only.
func (s *AlertService) AttachMedia(actorID, alertID string, urls []string) (*models.Alert, error) {
	alert, err := s.stores.Alerts.FindByID(alertID)
	if err != nil {
		return nil, err
	}
	if alert.UserID != actorID {
		return nil, errors.Forbiddenf("only the alert owner can attach media")
	}

	alert.MediaURLs = append(alert.MediaURLs, urls...)
	if err := s.stores.Alerts.Save(alert); err != nil {
		return nil, err
	}

	s.dispatcher.SendAlertStatusUpdate(alert)
	return alert, nil
}

// Delete removes the alert and its responses. Owner only.
func (s *AlertService) Delete(actorID, alertID string) error {
	alert, err := s.stores.Alerts.FindByID(alertID)
	if err != nil {
		return err
	}
	if alert.UserID != actorID {
		return errors.Forbiddenf("only the alert owner can delete it")
	}
	return s.stores.Alerts.DeleteByID(alertID)
}
