package store

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/geo"
)

// newTestStores 每个测试一个独立内存库。内存sqlite按连接隔离，
// 必须限制为单连接
func newTestStores(t *testing.T) *Stores {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stores, err := New(db)
	require.NoError(t, err)
	return stores
}

func TestAlertSaveAndFind(t *testing.T) {
	stores := newTestStores(t)

	alert := &models.Alert{
		UserID:    "u1",
		AlertType: models.AlertManual,
		Status:    models.StatusActive,
		Message:   "help",
	}
	require.NoError(t, stores.Alerts.Save(alert))
	require.NotEmpty(t, alert.ID)

	got, err := stores.Alerts.FindByID(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Empty(t, got.Responses)
}

func TestAlertFindByIDNotFound(t *testing.T) {
	stores := newTestStores(t)

	_, err := stores.Alerts.FindByID("missing")
	assert.Error(t, err)
}

func TestAlertUpdateStatusNotFound(t *testing.T) {
	stores := newTestStores(t)

	err := stores.Alerts.UpdateStatus("missing", models.StatusResolved)
	assert.Error(t, err)
}

func TestAlertConcurrentResponseAppends(t *testing.T) {
	stores := newTestStores(t)

	alert := &models.Alert{UserID: "u1", AlertType: models.AlertManual, Status: models.StatusActive}
	require.NoError(t, stores.Alerts.Save(alert))

	// 两个响应者并发追加，两条都必须落库
	var wg sync.WaitGroup
	responders := []string{"u2", "u3"}
	for _, r := range responders {
		wg.Add(1)
		go func(responder string) {
			defer wg.Done()
			err := stores.Alerts.AppendResponse(&models.AlertResponse{
				AlertID:         alert.ID,
				ResponderUserID: responder,
				ResponseType:    models.ResponseAcknowledged,
			})
			assert.NoError(t, err)
		}(r)
	}
	wg.Wait()

	got, err := stores.Alerts.FindByID(alert.ID)
	require.NoError(t, err)
	require.Len(t, got.Responses, 2)
	// Seq 单调递增
	assert.Less(t, got.Responses[0].Seq, got.Responses[1].Seq)
}

func TestAlertDeleteRemovesResponses(t *testing.T) {
	stores := newTestStores(t)

	alert := &models.Alert{UserID: "u1", AlertType: models.AlertManual, Status: models.StatusActive}
	require.NoError(t, stores.Alerts.Save(alert))
	require.NoError(t, stores.Alerts.AppendResponse(&models.AlertResponse{
		AlertID:         alert.ID,
		ResponderUserID: "u2",
		ResponseType:    models.ResponseEnRoute,
	}))

	require.NoError(t, stores.Alerts.DeleteByID(alert.ID))

	_, err := stores.Alerts.FindByID(alert.ID)
	assert.Error(t, err)

	var count int64
	stores.DB.Model(&models.AlertResponse{}).Where("alert_id = ?", alert.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSafeHavenAccessibility(t *testing.T) {
	stores := newTestStores(t)

	own := &models.SafeHaven{ID: "sh1", Name: "home", UserID: "u1", RadiusMeters: 100}
	g1Shared := &models.SafeHaven{ID: "sh2", Name: "clubhouse", UserID: "u9", GroupID: "g1", RadiusMeters: 100}
	g2Shared := &models.SafeHaven{ID: "sh3", Name: "office", UserID: "u9", GroupID: "g2", RadiusMeters: 100}
	public := &models.SafeHaven{ID: "sh4", Name: "station", UserID: "u9", IsPublic: true, RadiusMeters: 100}
	for _, sh := range []*models.SafeHaven{own, g1Shared, g2Shared, public} {
		require.NoError(t, stores.SafeHavens.Save(sh))
	}

	// u1 只属于 g1：sh3 不可见
	havens, err := stores.SafeHavens.FindAccessible("u1", []string{"g1"})
	require.NoError(t, err)
	require.Len(t, havens, 3)
	assert.Equal(t, "sh1", havens[0].ID)
	assert.Equal(t, "sh2", havens[1].ID)
	assert.Equal(t, "sh4", havens[2].ID)
}

func TestSafeHavenFindAccessibleNear(t *testing.T) {
	stores := newTestStores(t)

	center := geo.Point{Lat: 59.9139, Lon: 10.7522}
	near := geo.DestinationPoint(center, 90, 400)
	far := geo.DestinationPoint(center, 90, 5000)

	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "near", UserID: "u1", Lat: near.Lat, Lon: near.Lon, RadiusMeters: 50,
	}))
	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "far", UserID: "u1", Lat: far.Lat, Lon: far.Lon, RadiusMeters: 50,
	}))

	havens, err := stores.SafeHavens.FindAccessibleNear("u1", nil, center, 1000)
	require.NoError(t, err)
	require.Len(t, havens, 1)
	assert.Equal(t, "near", havens[0].ID)
}

func TestRiskAlertDeleteExpiredIdempotent(t *testing.T) {
	stores := newTestStores(t)

	now := time.Now()
	require.NoError(t, stores.RiskAlerts.Save(&models.RiskAlert{
		ID: "stale", RiskLevel: models.RiskHigh, RadiusMeters: 100,
		ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, stores.RiskAlerts.Save(&models.RiskAlert{
		ID: "fresh", RiskLevel: models.RiskLow, RadiusMeters: 100,
		ExpiresAt: now.Add(time.Hour),
	}))

	n, err := stores.RiskAlerts.DeleteExpired(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 再跑一遍应当无事发生
	n, err = stores.RiskAlerts.DeleteExpired(now)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = stores.RiskAlerts.FindByID("fresh")
	assert.NoError(t, err)
}

func TestRiskAlertFindActiveNear(t *testing.T) {
	stores := newTestStores(t)

	now := time.Now()
	center := geo.Point{Lat: 59.9139, Lon: 10.7522}
	require.NoError(t, stores.RiskAlerts.Save(&models.RiskAlert{
		ID: "active", RiskLevel: models.RiskHigh, RadiusMeters: 100,
		Lat: center.Lat, Lon: center.Lon, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, stores.RiskAlerts.Save(&models.RiskAlert{
		ID: "expired", RiskLevel: models.RiskHigh, RadiusMeters: 100,
		Lat: center.Lat, Lon: center.Lon, ExpiresAt: now.Add(-time.Minute),
	}))

	got, err := stores.RiskAlerts.FindActiveNear(now, center, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "active", got[0].ID)
}

func TestGroupMembership(t *testing.T) {
	stores := newTestStores(t)

	group := &models.Group{ID: "g1", Name: "family", OwnerID: "owner"}
	require.NoError(t, stores.Groups.Save(group))
	require.NoError(t, stores.Groups.AddMember("g1", "u1", models.RoleMember))
	// 重复添加应幂等
	require.NoError(t, stores.Groups.AddMember("g1", "u1", models.RoleMember))

	ids, err := stores.Groups.MembershipGroupIDs("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ids)

	// 所有者也算成员
	ownerIDs, err := stores.Groups.MembershipGroupIDs("owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ownerIDs)

	isMember, err := stores.Groups.IsMember("g1", "owner")
	require.NoError(t, err)
	assert.True(t, isMember)

	members, err := stores.Groups.MemberIDs("g1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"owner", "u1"}, members)

	require.NoError(t, stores.Groups.RemoveMember("g1", "u1"))
	isMember, err = stores.Groups.IsMember("g1", "u1")
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestUserUpdateLastKnownLocation(t *testing.T) {
	stores := newTestStores(t)

	require.NoError(t, stores.Users.Save(&models.User{ID: "u1", Username: "alice"}))

	loc := models.Location{Lat: 59.9, Lon: 10.7, Source: models.LocationGPS, Timestamp: time.Now()}
	require.NoError(t, stores.Users.UpdateLastKnownLocation("u1", loc))

	got, err := stores.Users.FindByID("u1")
	require.NoError(t, err)
	assert.InDelta(t, 59.9, got.LastKnownLocation.Lat, 1e-9)
	assert.InDelta(t, 10.7, got.LastKnownLocation.Lon, 1e-9)
}

func TestEventFindRecentByOwner(t *testing.T) {
	stores := newTestStores(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, stores.Events.Save(&models.Event{
			UserID:    "u1",
			EventType: models.EventInactivity,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := stores.Events.FindRecentByOwner("u1", 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// 最新在前
	assert.True(t, events[0].Timestamp.After(events[2].Timestamp))
}

func TestMessageFindDirectBothDirections(t *testing.T) {
	stores := newTestStores(t)

	require.NoError(t, stores.Messages.Save(&models.Message{
		SenderID: "u1", RecipientID: "u2", Content: "hi", MessageType: models.MessageText,
	}))
	require.NoError(t, stores.Messages.Save(&models.Message{
		SenderID: "u2", RecipientID: "u1", Content: "hello", MessageType: models.MessageText,
	}))

	msgs, err := stores.Messages.FindDirect("u1", "u2", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
