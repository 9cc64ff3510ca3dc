package service

import (
	"time"

	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/cache"
)

// Services 聚合所有业务服务
type Services struct {
	Alerts     *AlertService
	Events     *EventService
	SafeHavens *SafeHavenService
	RiskAlerts *RiskAlertService
	Groups     *GroupService
	Messages   *MessageService
}

// Options 服务层可调参数
type Options struct {
	RiskAlertTTL  time.Duration
	MembershipTTL time.Duration
}

// New wires the services over the stores, dispatcher and cache.
func New(stores *store.Stores, dispatcher *fanout.Dispatcher, c cache.Cache, opts Options) *Services {
	groups := NewGroupService(stores, dispatcher, c, opts.MembershipTTL)
	alerts := NewAlertService(stores, dispatcher, groups)
	return &Services{
		Alerts:     alerts,
		Events:     NewEventService(stores, dispatcher, alerts),
		SafeHavens: NewSafeHavenService(stores, groups),
		RiskAlerts: NewRiskAlertService(stores, opts.RiskAlertTTL),
		Groups:     groups,
		Messages:   NewMessageService(stores, dispatcher, groups),
	}
}
