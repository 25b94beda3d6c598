package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/config"
	"github.com/social-media/social-backend/internal/handlers"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/cache"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting social API server...")

	if cfg.JWT.Secret == "" {
		logger.Warn("JWT secret is empty; set JWT_SECRET before exposing this server")
	}

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// 自动迁移数据库表
	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	ctx := context.Background()

	// 初始化Redis缓存（可选）
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient = cache.NewRedisClient(
			cfg.Redis.Addr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			cfg.Redis.MinIdleConns,
		)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
	}

	// 初始化Kafka生产者（可选）
	var producer queue.Publisher = queue.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents)
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)

	// 初始化服务
	feedCache := services.NewFeedCache(redisClient, cfg.Feed.CacheTTL, logger)
	followService := services.NewFollowService(userRepo, followRepo, producer, logger)
	userService := services.NewUserService(userRepo, followService, feedCache, producer, logger)
	postService := services.NewPostService(postRepo, feedCache, producer, cfg.Feed.Limit, logger)
	likeService := services.NewLikeService(postRepo, likeRepo, feedCache, producer, logger)
	commentService := services.NewCommentService(postRepo, commentRepo, producer, logger)
	activityService := services.NewActivityService(redisClient, logger)

	tokens := middleware.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpireTime)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(&handlers.Handlers{
		Auth:     handlers.NewAuthHandler(userService, tokens, logger),
		Posts:    handlers.NewPostHandler(postService, likeService, logger),
		Comments: handlers.NewCommentHandler(commentService, logger),
		Users:    handlers.NewUserHandler(userService, followService, activityService, logger),
	}, tokens, middleware.NewMetrics(), logger)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	// 创建默认配置文件（如果不存在）
	configPath := "configs/config.yaml"
	if os.Getenv("CONFIG_PATH") != "" {
		return
	}
	if err := os.MkdirAll("configs", 0755); err != nil {
		log.Printf("Failed to create directory configs: %v", err)
		return
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "social"
  password: "social"
  dbname: "social_media"
  sslmode: "disable"
  max_open_conns: 10
  max_idle_conns: 5
  conn_max_lifetime: 1h

redis:
  enabled: false
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 20
  min_idle_conns: 2

kafka:
  enabled: false
  brokers:
    - "localhost:9092"
  topics:
    social_events: "social-events"
  group_id: "activity-worker-group"

# secret 请通过 JWT_SECRET 环境变量提供
jwt:
  expire_time: 168h

feed:
  limit: 50       # 首页最多返回条数
  cache_ttl: 30s

log:
  level: "info"`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
