package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"HibiscusGuard/internal/classifier"
	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/cache"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
)

// capturePublisher 记录每个频道收到的载荷，并发安全
type capturePublisher struct {
	mu        sync.Mutex
	published map[string][]interface{}
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{published: make(map[string][]interface{})}
}

func (p *capturePublisher) Publish(channel string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[channel] = append(p.published[channel], payload)
	return nil
}

func (p *capturePublisher) count(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published[channel])
}

func (p *capturePublisher) last(channel string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.published[channel]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func newTestServices(t *testing.T) (*Services, *store.Stores, *capturePublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stores, err := store.New(db)
	require.NoError(t, err)

	pub := newCapturePublisher()
	c, err := cache.NewCache(cache.Config{Type: "gocache"})
	require.NoError(t, err)

	svcs := New(stores, fanout.NewDispatcher(pub), c, Options{
		RiskAlertTTL:  24 * time.Hour,
		MembershipTTL: time.Minute,
	})
	return svcs, stores, pub
}

func TestIngestHighConfidenceFallCreatesAlert(t *testing.T) {
	svcs, stores, pub := newTestServices(t)
	require.NoError(t, stores.Users.Save(&models.User{ID: "u1", Username: "alice"}))

	loc := models.Location{Lat: 59.9, Lon: 10.7, Source: models.LocationGPS, Timestamp: time.Now()}
	result, err := svcs.Events.Ingest(&models.Event{
		UserID:     "u1",
		EventType:  models.EventFallDetected,
		Confidence: 0.8,
		Location:   loc,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.Equal(t, models.AlertFallDetected, result.Alert.AlertType)
	assert.Equal(t, models.StatusActive, result.Alert.Status)

	// 警报广播 + 位置推送
	assert.Equal(t, 1, pub.count(fanout.ChannelAlerts))
	assert.Equal(t, 1, pub.count(fanout.UserLocation("u1")))

	// 最近位置已刷新
	user, err := stores.Users.FindByID("u1")
	require.NoError(t, err)
	assert.InDelta(t, 59.9, user.LastKnownLocation.Lat, 1e-9)
}

func TestIngestBelowThresholdCreatesNoAlert(t *testing.T) {
	svcs, _, pub := newTestServices(t)

	result, err := svcs.Events.Ingest(&models.Event{
		UserID:     "u1",
		EventType:  models.EventFallDetected,
		Confidence: 0.65,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Alert)
	assert.Zero(t, pub.count(fanout.ChannelAlerts))
}

func TestIngestEnterRiskAreaNotifiesUser(t *testing.T) {
	svcs, _, pub := newTestServices(t)

	result, err := svcs.Events.Ingest(&models.Event{
		UserID:     "u1",
		EventType:  models.EventEnterRiskArea,
		Confidence: 1.0,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Alert, "地理围栏事件不应产出警报")

	require.Equal(t, 1, pub.count(fanout.UserNotifications("u1")))
	note, ok := pub.last(fanout.UserNotifications("u1")).(fanout.SystemNotification)
	require.True(t, ok)
	assert.Equal(t, classifier.RiskAreaNotice, note.Message)
}

func TestIngestUnknownTypeFallsBackToManual(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	result, err := svcs.Events.Ingest(&models.Event{
		UserID:     "u1",
		EventType:  "SENSOR_GLITCH",
		Confidence: 0.1,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.Equal(t, models.AlertManual, result.Alert.AlertType)
	assert.Equal(t, "Alert triggered due to safety event.", result.Alert.Message)
}

func TestIngestRejectsInvalidConfidence(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	_, err := svcs.Events.Ingest(&models.Event{
		UserID:     "u1",
		EventType:  models.EventFallDetected,
		Confidence: 1.5,
	})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestAlertStatusUpdateOwnerOnly(t *testing.T) {
	svcs, _, pub := newTestServices(t)

	alert, err := svcs.Alerts.Create("u1", CreateAlertInput{Message: "help"})
	require.NoError(t, err)

	_, err = svcs.Alerts.UpdateStatus("u2", alert.ID, models.StatusResolved)
	assert.True(t, errors.IsForbidden(err))

	_, err = svcs.Alerts.UpdateStatus("u1", alert.ID, "BOGUS")
	assert.True(t, errors.IsInvalidArgument(err))

	updated, err := svcs.Alerts.UpdateStatus("u1", alert.ID, models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)

	assert.Equal(t, 1, pub.count(fanout.AlertTopic(alert.ID)))
	assert.GreaterOrEqual(t, pub.count(fanout.UserAlerts("u1")), 1)
}

func TestAlertCreateInGroupRequiresMembership(t *testing.T) {
	svcs, _, pub := newTestServices(t)

	group, err := svcs.Groups.Create("owner", "family", "")
	require.NoError(t, err)

	_, err = svcs.Alerts.Create("stranger", CreateAlertInput{GroupID: group.ID})
	assert.True(t, errors.IsForbidden(err))

	alert, err := svcs.Alerts.Create("owner", CreateAlertInput{GroupID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.count(fanout.GroupAlerts(group.ID)))
	assert.Equal(t, group.ID, alert.GroupID)
}

func TestAppendResponseConcurrentlyKeepsBoth(t *testing.T) {
	svcs, _, pub := newTestServices(t)

	alert, err := svcs.Alerts.Create("u1", CreateAlertInput{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, responder := range []string{"u2", "u3"} {
		wg.Add(1)
		go func(r string) {
			defer wg.Done()
			_, err := svcs.Alerts.AppendResponse(r, alert.ID, AppendResponseInput{
				ResponseType: models.ResponseAcknowledged,
			})
			assert.NoError(t, err)
		}(responder)
	}
	wg.Wait()

	got, err := svcs.Alerts.FindByID(alert.ID)
	require.NoError(t, err)
	assert.Len(t, got.Responses, 2)
	assert.Equal(t, 2, pub.count(fanout.AlertResponses(alert.ID)))
}

func TestSafeHavenCreateRejectsNonPositiveRadius(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	_, err := svcs.SafeHavens.Create("u1", &models.SafeHaven{Name: "home", RadiusMeters: 0})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestSafeHavenLocateFirstContainingWins(t *testing.T) {
	svcs, stores, _ := newTestServices(t)

	center := geo.Point{Lat: 59.9139, Lon: 10.7522}
	// 两个重叠安全区，都包含center，id较小者胜出
	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "a-first", UserID: "u1", Lat: center.Lat, Lon: center.Lon, RadiusMeters: 500,
	}))
	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "b-second", UserID: "u1", Lat: center.Lat, Lon: center.Lon, RadiusMeters: 800,
	}))

	result, err := svcs.SafeHavens.Locate("u1", center)
	require.NoError(t, err)
	require.True(t, result.Inside)
	assert.Equal(t, "a-first", result.SafeHaven.ID)
}

func TestSafeHavenLocateBoundaryInclusive(t *testing.T) {
	svcs, stores, _ := newTestServices(t)

	center := geo.Point{Lat: 59.9139, Lon: 10.7522}
	onEdge := geo.DestinationPoint(center, 90, 300)
	// 半径取实测距离，把点放在正好的边界上
	edgeDistance := geo.DistanceMeters(center, onEdge)
	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "sh1", UserID: "u1", Lat: center.Lat, Lon: center.Lon, RadiusMeters: edgeDistance,
	}))

	result, err := svcs.SafeHavens.Locate("u1", onEdge)
	require.NoError(t, err)
	assert.True(t, result.Inside)

	outside := geo.DestinationPoint(center, 90, 350)
	result, err = svcs.SafeHavens.Locate("u1", outside)
	require.NoError(t, err)
	assert.False(t, result.Inside)
}

func TestSafeHavenAccessibilityThroughGroups(t *testing.T) {
	svcs, stores, _ := newTestServices(t)

	g1, err := svcs.Groups.Create("owner1", "g-one", "")
	require.NoError(t, err)
	g2, err := svcs.Groups.Create("owner2", "g-two", "")
	require.NoError(t, err)
	require.NoError(t, svcs.Groups.AddMember("owner1", g1.ID, "u1"))

	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "shared-g1", UserID: "owner1", GroupID: g1.ID, RadiusMeters: 100,
	}))
	require.NoError(t, stores.SafeHavens.Save(&models.SafeHaven{
		ID: "shared-g2", UserID: "owner2", GroupID: g2.ID, RadiusMeters: 100,
	}))

	havens, err := svcs.SafeHavens.FindAccessible("u1")
	require.NoError(t, err)
	require.Len(t, havens, 1)
	assert.Equal(t, "shared-g1", havens[0].ID)
}

func TestRiskAlertDefaultExpiry(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	before := time.Now()
	ra, err := svcs.RiskAlerts.Create(&models.RiskAlert{
		Title: "flood", RiskLevel: models.RiskHigh, RiskType: models.RiskNaturalDisaster,
		RadiusMeters: 500,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(24*time.Hour), ra.ExpiresAt, time.Minute)
}

func TestRiskAlertFindActiveNearMinLevel(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	center := geo.Point{Lat: 59.9139, Lon: 10.7522}
	for id, level := range map[string]models.RiskLevel{
		"low":      models.RiskLow,
		"high":     models.RiskHigh,
		"critical": models.RiskCritical,
	} {
		_, err := svcs.RiskAlerts.Create(&models.RiskAlert{
			ID: id, RiskLevel: level, RadiusMeters: 200,
			Lat: center.Lat, Lon: center.Lon,
		})
		require.NoError(t, err)
	}

	got, err := svcs.RiskAlerts.FindActiveNear(center, 1000, models.RiskHigh)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, ra := range got {
		ids = append(ids, ra.ID)
	}
	assert.ElementsMatch(t, []string{"high", "critical"}, ids)
}

func TestRiskAlertExpireOld(t *testing.T) {
	svcs, stores, _ := newTestServices(t)

	require.NoError(t, stores.RiskAlerts.Save(&models.RiskAlert{
		ID: "stale", RiskLevel: models.RiskLow, RadiusMeters: 100,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	n, err := svcs.RiskAlerts.ExpireOld()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svcs.RiskAlerts.ExpireOld()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGroupAddMemberPermissions(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	group, err := svcs.Groups.Create("owner", "family", "")
	require.NoError(t, err)

	// 默认不允许成员邀请
	err = svcs.Groups.AddMember("stranger", group.ID, "u2")
	assert.True(t, errors.IsForbidden(err))

	require.NoError(t, svcs.Groups.AddMember("owner", group.ID, "u2"))

	// 打开成员邀请后，成员可以拉人
	settings := group.Settings
	settings.AllowMemberInvites = true
	_, err = svcs.Groups.UpdateSettings("owner", group.ID, settings)
	require.NoError(t, err)

	require.NoError(t, svcs.Groups.AddMember("u2", group.ID, "u3"))

	// 成员缓存随变更失效
	ids, err := svcs.Groups.MembershipGroupIDs("u3")
	require.NoError(t, err)
	assert.Contains(t, ids, group.ID)
}

func TestGroupRemoveMemberRules(t *testing.T) {
	svcs, _, _ := newTestServices(t)

	group, err := svcs.Groups.Create("owner", "family", "")
	require.NoError(t, err)
	require.NoError(t, svcs.Groups.AddMember("owner", group.ID, "u2"))

	// 所有者不能被移除
	err = svcs.Groups.RemoveMember("owner", group.ID, "owner")
	assert.True(t, errors.IsInvalidArgument(err))

	// 其他成员不能互相移除
	err = svcs.Groups.RemoveMember("u2", group.ID, "owner")
	assert.Error(t, err)

	// 成员可以自己退出
	require.NoError(t, svcs.Groups.RemoveMember("u2", group.ID, "u2"))
}

func TestMessageGroupRequiresMembership(t *testing.T) {
	svcs, _, pub := newTestServices(t)

	group, err := svcs.Groups.Create("owner", "family", "")
	require.NoError(t, err)

	_, err = svcs.Messages.SendToGroup("stranger", group.ID, SendMessageInput{Content: "hi"})
	assert.True(t, errors.IsForbidden(err))

	msg, err := svcs.Messages.SendToGroup("owner", group.ID, SendMessageInput{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, msg.MessageType)
	assert.Equal(t, 1, pub.count(fanout.GroupMessages(group.ID)))
}

func TestMessageDirectUnknownRecipient(t *testing.T) {
	svcs, stores, pub := newTestServices(t)

	_, err := svcs.Messages.SendDirect("u1", "ghost", SendMessageInput{Content: "hi"})
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, stores.Users.Save(&models.User{ID: "u2", Username: "bob"}))
	_, err = svcs.Messages.SendDirect("u1", "u2", SendMessageInput{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.count(fanout.UserMessages("u2")))
}

// jsonRoundTripCache 模拟redis后端的行为：写入值经过JSON编解码
type jsonRoundTripCache struct {
	cache.Cache
}

func (c jsonRoundTripCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var decoded interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	return c.Cache.Set(ctx, key, decoded, ttl)
}

func TestMembershipCacheHitsAfterJSONRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stores, err := store.New(db)
	require.NoError(t, err)

	inner, err := cache.NewCache(cache.Config{Type: "gocache"})
	require.NoError(t, err)

	svcs := New(stores, fanout.NewDispatcher(newCapturePublisher()), jsonRoundTripCache{inner}, Options{
		RiskAlertTTL:  24 * time.Hour,
		MembershipTTL: time.Minute,
	})

	g1, err := svcs.Groups.Create("u1", "family", "")
	require.NoError(t, err)
	g2, err := svcs.Groups.Create("u9", "friends", "")
	require.NoError(t, err)

	ids, err := svcs.Groups.MembershipGroupIDs("u1")
	require.NoError(t, err)
	require.Equal(t, []string{g1.ID}, ids)

	// 绕过服务直接写库；缓存命中时新成员关系暂不可见
	require.NoError(t, stores.Groups.AddMember(g2.ID, "u1", models.RoleMember))

	ids, err = svcs.Groups.MembershipGroupIDs("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{g1.ID}, ids)
}
