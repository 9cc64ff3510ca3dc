package store

import (
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/util"
)

// Stores 聚合各实体仓储，共享同一个gorm连接
type Stores struct {
	DB         *gorm.DB
	Alerts     *AlertStore
	Events     *EventStore
	SafeHavens *SafeHavenStore
	RiskAlerts *RiskAlertStore
	Groups     *GroupStore
	Users      *UserStore
	Messages   *MessageStore
}

// Open opens the database for the configured driver and migrates the schema.
func Open(driver, dsn string) (*Stores, error) {
	db, err := util.OpenDatabase(&gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}, driver, dsn)
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New wires stores over an existing connection (tests pass in-memory sqlite).
func New(db *gorm.DB) (*Stores, error) {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Event{},
		&models.Alert{},
		&models.AlertResponse{},
		&models.SafeHaven{},
		&models.RiskAlert{},
		&models.Message{},
	); err != nil {
		return nil, err
	}

	return &Stores{
		DB:         db,
		Alerts:     &AlertStore{db: db},
		Events:     &EventStore{db: db},
		SafeHavens: &SafeHavenStore{db: db},
		RiskAlerts: &RiskAlertStore{db: db},
		Groups:     &GroupStore{db: db},
		Users:      &UserStore{db: db},
		Messages:   &MessageStore{db: db},
	}, nil
}
