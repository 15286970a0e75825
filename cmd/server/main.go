package main

import (
	"flag"
	"log"

	"github.com/yockii/ai_report/internal/server"
	"github.com/yockii/ai_report/pkg/config"
	"github.com/yockii/ai_report/pkg/logger"
	"github.com/yockii/ai_report/pkg/util"
)

func main() {
	configFile := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// 初始化配置
	if err := config.Init(*configFile); err != nil {
		log.Fatalf("初始化配置失败: %v", err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("配置校验失败: %v", err)
	}

	if err := util.InitNode(config.GetUint64("server.node_id")); err != nil {
		log.Fatalf("初始化ID生成器失败: %v", err)
	}

	// 初始化日志
	logger.Init()
	defer logger.Sync()

	// 创建服务器实例
	srv := server.New()

	// 启动服务器
	if err := srv.Start(); err != nil {
		log.Fatalf("服务停止: %v", err)
	}
}
