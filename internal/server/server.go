package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	middlewareLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	appapi "github.com/yockii/ai_report/internal/api_app"
	"github.com/yockii/ai_report/internal/backend"
	"github.com/yockii/ai_report/internal/cache"
	"github.com/yockii/ai_report/internal/export"
	"github.com/yockii/ai_report/internal/feed"
	"github.com/yockii/ai_report/internal/llm"
	"github.com/yockii/ai_report/internal/service"
	"github.com/yockii/ai_report/pkg/config"
	"github.com/yockii/ai_report/pkg/logger"
)

type Server struct {
	app *fiber.App

	reaperCancel context.CancelFunc

	// 各个service
	reportSrv    service.ReportService
	generatorSrv service.GeneratorService
}

func New() *Server {
	return &Server{}
}

// App 构建fiber实例并注册路由，Start 会调用它，测试中可单独使用
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	// 创建Fiber实例
	s.app = fiber.New(fiber.Config{
		AppName:               config.GetString("server.app_name"),
		EnablePrintRoutes:     config.GetBool("server.print_routes"),
		DisableStartupMessage: true,
	})

	s.setupServices()

	// 配置中间件
	s.setupMiddleware()

	// 配置应用路由
	s.setupApplicationRoutesV1()
	return s.app
}

func (s *Server) Start() error {
	s.App()

	var ctx context.Context
	ctx, s.reaperCancel = context.WithCancel(context.Background())
	s.reportSrv.StartReaper(ctx,
		config.GetSeconds("report.reap_interval"),
		config.GetSeconds("report.session_idle_timeout"),
	)

	// 启动服务器
	addr := config.GetServerAddress()
	logger.Info("服务监听地址", logger.F("address", addr))

	// 优雅关闭
	go s.gracefulShutdown()

	if err := s.app.Listen(addr); err != nil {
		logger.Error("服务停止", logger.F("error", err))
		return err
	}
	return nil
}

func (s *Server) gracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务关闭中...")

	if s.reaperCancel != nil {
		s.reaperCancel()
	}
	s.reportSrv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		logger.Error("服务关闭失败", logger.F("error", err))
	}

	logger.Info("服务已关闭")
}

// setupServices 配置服务层
func (s *Server) setupServices() {
	// 创建服务实例
	s.reportSrv = service.NewReportService(
		backend.NewClient(config.GetString("backend.url")),
		export.NewController(config.GetString("report.file_prefix")),
		config.GetSeconds("backend.timeout"),
	)

	streamer, err := llm.New(llm.SettingsFromConfig())
	if err != nil {
		// 模型未配置时生成接口返回503，会话接口仍可对接外部生成服务
		logger.Warn("模型服务未配置", logger.F("error", err))
	}
	s.generatorSrv = service.NewGeneratorService(feed.NewFetcherFromConfig(cache.New()), streamer)
}

// setupMiddleware 配置中间件
func (s *Server) setupMiddleware() {
	// 异常恢复
	s.app.Use(recover.New())

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetString("security.allowed_origins"),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// 访问日志
	s.app.Use(middlewareLogger.New(middlewareLogger.Config{
		Format:     "[${ip}]-${time} ${status} ${latency} ${method} ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 健康检查
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
}

// setupApplicationRoutesV1 配置应用路由
func (s *Server) setupApplicationRoutesV1() {
	appapi.Handlers = nil
	appapi.RegisterReportHandler(s.generatorSrv)
	appapi.RegisterSessionHandler(s.reportSrv)

	appApiGroup := s.app.Group("/api/v1")
	for _, handler := range appapi.Handlers {
		handler.RegisterRoutes(appApiGroup)
	}
}
