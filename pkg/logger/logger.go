package logger

import (
	"fmt"
	"os"
	"path"

	"github.com/yockii/ai_report/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 未初始化前不输出任何日志
var logger = zap.NewNop()

// F 用于创建日志字段的简写
func F(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

// 初始化日志，未配置文件名时写入 logs/app.log
func Init() {
	logFile := config.GetString("log.filename")
	if logFile == "" {
		logFile = "logs/app.log"
	}
	initWith(logFile)
}

// InitCLI 命令行工具使用，只有显式配置了 log.filename 才写文件，
// 否则按 log.console 输出到标准错误或不输出
func InitCLI() {
	initWith(config.GetString("log.filename"))
}

func initWith(logFile string) {
	level := zap.InfoLevel
	if err := level.UnmarshalText([]byte(config.GetString("log.level"))); err != nil {
		level = zap.InfoLevel
	}

	// 配置编码器
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core
	if logFile != "" {
		// 确保日志目录存在
		if err := os.MkdirAll(path.Dir(logFile), 0755); err != nil {
			fmt.Printf("创建日志目录失败，无法记录日志到文件: %v", err)
			return
		}

		// 配置日志输出
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    config.GetInt("log.max_size"), // MB
			MaxBackups: config.GetInt("log.max_backups"),
			MaxAge:     config.GetInt("log.max_age"),   // days
			Compress:   config.GetBool("log.compress"), // 是否压缩
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, level))
	}

	// 同时输出到控制台
	if config.GetBool("log.console") {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	if len(cores) == 0 {
		logger = zap.NewNop()
		return
	}

	// 创建logger
	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

// Debug 调试级别日志
func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

// Info 信息级别日志
func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

// Warn 警告级别日志
func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

// Error 错误级别日志
func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

// Fatal 致命级别日志
func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}

// Sync 同步日志缓冲
func Sync() error {
	return logger.Sync()
}

// GetLogger 获取原始logger实例
func GetLogger() *zap.Logger {
	return logger
}

// SetLogger 替换logger实例，测试中可注入 zaptest/observer
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}
