package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asbuilt-data/internal/config"
	"asbuilt-data/internal/database"
	httpapi "asbuilt-data/internal/http"
	"asbuilt-data/internal/imaging"
	"asbuilt-data/internal/logger"
	"asbuilt-data/internal/repository"
	"asbuilt-data/internal/service"
	"asbuilt-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "asbuilt-data")
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	// 文档存储：Redis 优先，未就绪回退内存（联测不因缺 Redis 失败）
	var kv store.KV
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err == nil {
		kv = store.NewRedisKV(redisClient)
		log.Info("Redis document store enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		kv = store.NewMemoryKV()
		log.Warn("Redis unavailable, falling back to in-memory document store", zap.Error(err))
	}
	cancel()

	docs := store.NewDocumentStore(kv)

	// 转码协作方：配置了外部服务则走 HTTP，否则本地回退
	var transcoder imaging.Transcoder
	if cfg.Imaging.HttpAddress != "" {
		transcoder = imaging.NewHTTPTranscoder(cfg.Imaging.HttpAddress, log)
		log.Info("Remote imaging transcoder enabled", zap.String("addr", cfg.Imaging.HttpAddress))
	} else {
		transcoder = imaging.NewLocalTranscoder()
	}

	svc := service.NewImportService(docs, transcoder, imaging.Options{
		MaxDimension: cfg.Imaging.MaxDimension,
		Quality:      cfg.Imaging.Quality,
	}, log)

	// 归档（可选）：DB 未启用/连接失败时归档端点返回 Fail，其余功能不受影响
	var snapshots *repository.SnapshotsRepository
	if cfg.DBEnabled {
		if db, err := database.NewPostgresDB(&cfg.Database); err == nil {
			snapshots = repository.NewSnapshotsRepository(db, log)
			log.Info("Snapshot archive enabled")
		} else {
			log.Warn("DB enabled but connection failed, archive disabled", zap.Error(err))
		}
	}

	router := httpapi.NewRouter(log)
	router.RegisterReportRoutes(
		httpapi.NewReportHandler(svc, snapshots, log),
		httpapi.NewImportHandler(svc, log),
	)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		log.Info("asbuilt-data listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
}
