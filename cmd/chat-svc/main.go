// Package main 对话评估服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ielts-tutor-api/internal/application/assessment"
	"ielts-tutor-api/internal/config"
	"ielts-tutor-api/internal/infrastructure/llm"
	"ielts-tutor-api/internal/infrastructure/persistence/postgres"
	"ielts-tutor-api/internal/infrastructure/persistence/redis"
	"ielts-tutor-api/internal/interfaces/http/handler"
	"ielts-tutor-api/internal/interfaces/http/router"
	"ielts-tutor-api/internal/workflow"
	"ielts-tutor-api/internal/workflow/node"
	"ielts-tutor-api/internal/workflow/prompt"
	"ielts-tutor-api/pkg/logger"
	"ielts-tutor-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting chat-svc",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化存储
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	if err := pgClient.AutoMigrate(); err != nil {
		logger.Fatal(ctx, "failed to migrate schema", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	// 初始化推理网关，提供商配置错误在启动期暴露
	factory := llm.NewEinoFactory(cfg)
	gateway, err := llm.NewGateway(ctx, factory, &cfg.LLM)
	if err != nil {
		logger.Fatal(ctx, "failed to init inference gateway", err)
	}

	// 组装工作流
	prompts := prompt.NewRegistry()
	rules := node.ValidationRules{
		MinWordsTask1: cfg.Assessment.MinWordsTask1,
		MinWordsTask2: cfg.Assessment.MinWordsTask2,
		MaxWords:      cfg.Assessment.MaxWords,
	}
	engine := workflow.NewEngine(map[workflow.Stage]workflow.StageFunc{
		workflow.StageAnalyzeInput:        node.NewInputAnalyzer(),
		workflow.StageClassifyIntent:      node.NewIntentClassifier(gateway, prompts),
		workflow.StageExtractImageContent: node.NewImageExtractor(gateway, prompts),
		workflow.StageCombineContent:      node.NewContentCombiner(gateway, prompts),
		workflow.StageEvaluateEssay:       node.NewEssayEvaluator(gateway, prompts, rules, cfg.Assessment.ChargeOnFallback),
		workflow.StageHandleGreeting:      node.NewGreetingHandler(),
		workflow.StageGenerateQuestion:    node.NewQuestionGenerator(gateway, prompts),
		workflow.StageHandleFollowup:      node.NewFollowupHandler(gateway, prompts),
		workflow.StageFormatResponse:      node.NewResponseFormatter(cfg.Assessment.HistoryWindow),
	})

	// 组装应用服务
	store := assessment.NewStore(
		postgres.NewConversationRepository(pgClient),
		postgres.NewEvaluationRepository(pgClient),
		postgres.NewTxManager(pgClient),
		redis.NewCache(redisClient),
		cfg.Assessment.LoadWindow,
		cfg.Assessment.SnapshotTTL,
	)
	svc := assessment.NewService(engine, store)

	// 组装 HTTP 层
	r := router.New(cfg,
		handler.NewChatHandler(svc),
		handler.NewHealthHandler(pgClient, redisClient),
	)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
