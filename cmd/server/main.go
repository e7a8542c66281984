// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/handler"
	"doc-insight-go/internal/middleware"
	"doc-insight-go/internal/model"
	"doc-insight-go/internal/notify"
	"doc-insight-go/internal/pipeline"
	"doc-insight-go/internal/repository"
	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/database"
	"doc-insight-go/pkg/embedding"
	"doc-insight-go/pkg/kafka"
	"doc-insight-go/pkg/llm"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/ocr"
	"doc-insight-go/pkg/search"
	"doc-insight-go/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	if err := db.AutoMigrate(
		&model.Document{},
		&model.Analysis{},
		&model.ChatMessage{},
		&model.Notification{},
	); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}

	// 4. 初始化对象存储与向量索引
	blobStore, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatal("MinIO 初始化失败", err)
	}
	searchClient, err := search.NewClient(cfg.Elasticsearch, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatal("Elasticsearch 初始化失败", err)
	}

	// 5. 初始化 Kafka 生产者
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 6. 初始化 Repository
	docRepo := repository.NewDocumentRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	chatRepo := repository.NewChatMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 7. 初始化 Service (依赖注入)
	ocrClient := ocr.NewClient(cfg.OCR)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	notifier := notify.NewKafkaNotifier(producer)
	hub := notify.NewHub()
	notifyService := notify.NewService(notificationRepo, rdb, hub)
	documentService := service.NewDocumentService(docRepo, analysisRepo, blobStore, searchClient)
	chatService := service.NewChatService(embeddingClient, searchClient, llmClient, chatRepo, cfg.Chat, cfg.LLM.Prompt)

	// 8. 初始化文档摄取管道 (Coordinator)
	coordinator := pipeline.NewCoordinator(
		ocrClient,
		embeddingClient,
		searchClient,
		docRepo,
		analysisRepo,
		notifier,
	)

	// 9. 启动后台 Kafka 消费者
	go kafka.StartIngestionConsumer(cfg.Kafka, coordinator, rdb)
	go kafka.StartNotificationConsumer(cfg.Kafka, notifyService)

	// 10. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 11. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		documents := apiV1.Group("/documents")
		{
			docHandler := handler.NewDocumentHandler(documentService, producer)
			documents.POST("/upload-url", docHandler.GenerateUploadURL)
			documents.POST("/analyze", docHandler.Analyze)
			documents.GET("", docHandler.ListDocuments)
			documents.GET("/:documentId", docHandler.GetDocument)
			documents.GET("/:documentId/analyses", docHandler.GetAnalyses)
			documents.GET("/:documentId/download-url", docHandler.GenerateDownloadURL)
			documents.DELETE("/:documentId", docHandler.DeleteDocument)
		}

		chat := apiV1.Group("/chat")
		{
			chatHandler := handler.NewChatHandler(chatService)
			chat.POST("", chatHandler.Chat)
			chat.GET("/history", chatHandler.History)
		}

		notifications := apiV1.Group("/notifications")
		{
			notificationHandler := handler.NewNotificationHandler(notificationRepo, hub)
			notifications.GET("", notificationHandler.List)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("", notificationHandler.Clear)
			notifications.GET("/subscribe", notificationHandler.Subscribe)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是阻塞循环，随进程退出结束；
	// 生产者由上面的 defer 关闭。
	log.Info("服务已优雅关闭")
}
