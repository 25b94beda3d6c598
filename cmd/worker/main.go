package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/social-media/social-backend/internal/config"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/internal/workers"
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
	logger.Info("Starting activity worker process...")

	if !cfg.Kafka.Enabled || !cfg.Redis.Enabled {
		logger.Fatal("Activity worker requires kafka.enabled and redis.enabled")
	}

	// 初始化Redis缓存
	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 检查Redis连接
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化Kafka消费者
	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents, cfg.Kafka.GroupID)

	activityService := services.NewActivityService(redisClient, logger)
	worker := workers.NewActivityWorker(consumer, activityService, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Activity worker stopped with error")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	if err := worker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop activity worker")
	}

	logger.Info("Worker exited")
}
