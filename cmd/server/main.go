package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"HibiscusGuard/internal/fanout"
	handlers "HibiscusGuard/internal/handler"
	"HibiscusGuard/internal/service"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/backup"
	"HibiscusGuard/pkg/cache"
	"HibiscusGuard/pkg/config"
	"HibiscusGuard/pkg/logger"
	"HibiscusGuard/pkg/middleware"
	"HibiscusGuard/pkg/notification"
	"HibiscusGuard/pkg/scheduler"
	"HibiscusGuard/pkg/sse"
	"HibiscusGuard/pkg/storage"
	"HibiscusGuard/pkg/websocket"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	stores, err := store.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("数据库初始化失败", zap.Error(err))
	}

	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Fatal("缓存初始化失败", zap.Error(err))
	}
	defer c.Close()

	// WebSocket Hub 是主推送通道，SSE作为降级通道；启用Redis时叠加跨实例分发
	hub := websocket.NewHub(websocket.LoadConfigFromEnv())
	defer hub.Close()

	sseHub := sse.NewHub(0)

	publishers := []fanout.Publisher{hub, sseHub}
	if cfg.RedisFanoutEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		publishers = append(publishers, fanout.NewRedisPublisher(rdb))
	}
	if cfg.JPushAppKey != "" {
		jpCfg := notification.JPushConfig{AppKey: cfg.JPushAppKey, MasterSecret: cfg.JPushMasterSecret}
		jp := notification.NewJPush(jpCfg, notification.NewJPushHTTPClient(jpCfg))
		var sms *notification.AliyunSMS
		if cfg.SMSAccessKeyID != "" {
			smsCfg := notification.AliyunSMSConfig{
				AccessKeyId:     cfg.SMSAccessKeyID,
				AccessKeySecret: cfg.SMSAccessKeySecret,
				SignName:        cfg.SMSSignName,
				TemplateCode:    cfg.SMSTemplateCode,
			}
			sms = notification.NewAliyunSMS(smsCfg, notification.NewAliyunSMSHTTPClient(smsCfg))
		}
		publishers = append(publishers, fanout.NewPushPublisher(jp, sms, stores.Users))
	}
	var pub fanout.Publisher = publishers[0]
	if len(publishers) > 1 {
		pub = fanout.NewMultiPublisher(publishers...)
	}
	dispatcher := fanout.NewDispatcher(pub)

	services := service.New(stores, dispatcher, c, service.Options{
		RiskAlertTTL:  cfg.RiskAlertTTL,
		MembershipTTL: cfg.MembershipTTL,
	})

	// 风险区过期清理
	sched := scheduler.New()
	defer sched.Stop()
	sched.Every(cfg.SweepInterval, scheduler.FuncJob(func(ctx context.Context) {
		if _, err := services.RiskAlerts.ExpireOld(); err != nil {
			logger.Error("风险区清理失败", zap.Error(err))
		}
	}))

	// 每天凌晨清理过期原始事件
	cr := scheduler.NewCron(nil)
	if _, err := cr.AddWithCtx("0 3 * * *", func(ctx context.Context) {
		n, err := stores.Events.DeleteOlderThan(time.Now().Add(-cfg.EventRetention))
		if err != nil {
			logger.Error("事件清理失败", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("已清理历史事件", zap.Int("count", n))
		}
	}); err != nil {
		logger.Fatal("注册事件清理任务失败", zap.Error(err))
	}
	cr.Start()
	defer cr.Stop()

	// 数据库定时备份（配置了BACKUP_SCHEDULE才启动）
	backup.StartBackupScheduler()

	var media storage.MediaStore
	if cfg.MediaEnabled {
		media = storage.NewMinioStore()
	}

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(sessions.Sessions("guard_session", cookie.NewStore([]byte(cfg.SessionSecret))))

	// 事件上报与消息发送按单独速率限流，健康检查与指标不限
	middleware.SetRateLimiterConfig(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		Identifier: "ip",
		AddHeaders: true,
		SkipPaths:  []string{"/health", "/metrics"},
		PerRouteRates: map[string]string{
			cfg.APIPrefix + "/events":                  cfg.IngestRateLimit,
			cfg.APIPrefix + "/messages/group/:groupId": cfg.MessageRateLimit,
			cfg.APIPrefix + "/messages/direct/:userId": cfg.MessageRateLimit,
		},
	})
	engine.Use(middleware.RateLimiterMiddleware())

	h := handlers.NewHandlers(stores.DB, services, websocket.NewHandler(hub), sseHub, media)
	h.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	go func() {
		logger.Info("服务启动", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始优雅关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭HTTP服务失败", zap.Error(err))
	}
}
