package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/service"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/cache"
	"HibiscusGuard/pkg/config"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/sse"
)

type nullPublisher struct{}

func (nullPublisher) Publish(string, interface{}) error { return nil }

type testEnv struct {
	engine *gin.Engine
	stores *store.Stores
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{APIPrefix: "/api"}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stores, err := store.New(db)
	require.NoError(t, err)

	c, err := cache.NewCache(cache.Config{Type: "gocache"})
	require.NoError(t, err)

	services := service.New(stores, fanout.NewDispatcher(nullPublisher{}), c, service.Options{
		RiskAlertTTL:  24 * time.Hour,
		MembershipTTL: time.Minute,
	})

	engine := gin.New()
	engine.Use(sessions.Sessions("guard_session", cookie.NewStore([]byte("test-secret"))))

	// 测试登录入口，向会话写入用户ID
	engine.POST("/test/login/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set("user_id", c.Param("id"))
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	NewHandlers(db, services, nil, sse.NewHub(0), nil).Register(engine)
	return &testEnv{engine: engine, stores: stores}
}

// login 返回已登录用户的会话cookie
func (e *testEnv) login(t *testing.T, userID string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test/login/"+userID, nil)
	e.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestEventIngestRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/events", gin.H{"eventType": "FALL_DETECTED"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventIngestCreatesAlert(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "u1")

	w := env.do(t, http.MethodPost, "/api/events", gin.H{
		"eventType":  "FALL_DETECTED",
		"confidence": 0.9,
		"location":   gin.H{"lat": 59.91, "lon": 10.75},
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data service.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Alert)
	assert.Equal(t, models.AlertFallDetected, body.Data.Alert.AlertType)
}

func TestEventIngestDuplicateKeyRejected(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "u1")

	send := func() *httptest.ResponseRecorder {
		body, err := json.Marshal(gin.H{"eventType": "MANUAL_ALERT", "confidence": 1.0})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "dev-42-seq-7")
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusCreated, send().Code)
	assert.Equal(t, http.StatusConflict, send().Code)
}

func TestSSESubscriptionGuard(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/sse?channels=alerts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := env.login(t, "u1")
	w = env.do(t, http.MethodGet, "/api/sse?channels=user:u2:alerts", nil, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAlertStatusForbiddenForNonOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "u1")
	other := env.login(t, "u2")

	w := env.do(t, http.MethodPost, "/api/alerts", gin.H{"message": "help"}, owner)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPut, "/api/alerts/"+created.Data.ID+"/status",
		gin.H{"status": "RESOLVED"}, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/alerts/"+created.Data.ID+"/status",
		gin.H{"status": "RESOLVED"}, owner)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSafeHavenNearbyValidatesParams(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "u1")

	w := env.do(t, http.MethodGet, "/api/safehavens/nearby?lat=abc&lon=10", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSafeHavenLocateFlow(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "u1")

	w := env.do(t, http.MethodPost, "/api/safehavens", gin.H{
		"name": "home", "lat": 59.91, "lon": 10.75, "radiusMeters": 500,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/safehavens/locate?lat=59.91&lon=10.75", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data service.LocateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Inside)
	require.NotNil(t, body.Data.SafeHaven)
	assert.Equal(t, "home", body.Data.SafeHaven.Name)
}

func TestRiskAlertNotFound(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "u1")

	w := env.do(t, http.MethodGet, "/api/riskalerts/missing", nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupMessageRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "owner")
	stranger := env.login(t, "stranger")

	w := env.do(t, http.MethodPost, "/api/groups", gin.H{"name": "family"}, owner)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data models.Group `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPost, "/api/messages/group/"+created.Data.ID,
		gin.H{"content": "hi"}, stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages/group/"+created.Data.ID,
		gin.H{"content": "hi"}, owner)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRiskAlertManualExpire(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "u1")

	expired := time.Now().Add(-time.Hour)
	w := env.do(t, http.MethodPost, "/api/riskalerts", gin.H{
		"title": "flood", "riskLevel": "HIGH",
		"lat": 59.9, "lon": 10.7, "radiusMeters": 500,
		"expiresAt": expired,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/riskalerts/expire", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Count)

	// 再次执行为空操作
	w = env.do(t, http.MethodPost, "/api/riskalerts/expire", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Data.Count)
}

func TestUpdateRateLimiterConfigRoute(t *testing.T) {
	env := newTestEnv(t)
	prev := middleware.GetRateLimiterConfig()
	defer middleware.SetRateLimiterConfig(prev)

	w := env.do(t, http.MethodPut, "/api/admin/ratelimit", gin.H{"rate": "50-M"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := env.login(t, "admin")
	w = env.do(t, http.MethodPut, "/api/admin/ratelimit",
		gin.H{"rate": "50-M", "identifier": "ip", "add_headers": true}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50-M", middleware.GetRateLimiterConfig().Rate)
}
