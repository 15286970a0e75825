package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	config = newViper()
	once   sync.Once
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AI_REPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Init 初始化配置，配置文件不存在时只使用默认值和环境变量
func Init(configFiles ...string) error {
	var err error
	once.Do(func() {
		configFile := "config.yaml"
		if len(configFiles) > 0 && configFiles[0] != "" {
			configFile = configFiles[0]
		}
		if _, statErr := os.Stat(configFile); errors.Is(statErr, os.ErrNotExist) {
			return
		}
		config.SetConfigFile(configFile)

		// 读取配置文件
		if err = config.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config file failed: %v", err)
			return
		}

		// 监听配置文件变化
		config.WatchConfig()
	})
	return err
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.app_name", "ai_report")
	v.SetDefault("server.node_id", 1)
	v.SetDefault("server.print_routes", false)

	// log.filename 为空时服务端写入 logs/app.log，命令行工具不写文件
	v.SetDefault("log.filename", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("security.allowed_origins", "*")

	// 生成后端，默认指向本服务自身的生成接口
	v.SetDefault("backend.url", "http://127.0.0.1:8080/api/v1/report")
	v.SetDefault("backend.timeout", 120)

	v.SetDefault("report.file_prefix", "ai-report")
	v.SetDefault("report.default_language", "de")
	v.SetDefault("report.languages", []string{"de", "en", "zh", "fr", "es", "pt", "ja", "ko"})
	v.SetDefault("report.titles", map[string]string{
		"de": "KI-Wochenbericht",
		"en": "AI Weekly Report",
		"zh": "AI 周报",
		"fr": "Rapport IA hebdomadaire",
		"es": "Informe semanal de IA",
		"pt": "Relatório semanal de IA",
		"ja": "AI週間レポート",
		"ko": "AI 주간 보고서",
	})
	v.SetDefault("report.session_idle_timeout", 1800)
	v.SetDefault("report.reap_interval", 60)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.model", "openrouter/auto")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("content_api.base_url", "")
	v.SetDefault("content_api.timeout", 15)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 10)
	v.SetDefault("cache.ttl", 600)
}

// Get 获取配置值
func Get(key string) interface{} {
	return config.Get(key)
}

// GetString 获取字符串配置值
func GetString(key string) string {
	return config.GetString(key)
}

// GetInt 获取整数配置值
func GetInt(key string) int {
	return config.GetInt(key)
}

// GetInt64 获取64位整数配置值
func GetInt64(key string) int64 {
	return config.GetInt64(key)
}

// GetUint64 获取64位无符号整数配置值
func GetUint64(key string) uint64 {
	return config.GetUint64(key)
}

// GetFloat64 获取浮点数配置值
func GetFloat64(key string) float64 {
	return config.GetFloat64(key)
}

// GetBool 获取布尔配置值
func GetBool(key string) bool {
	return config.GetBool(key)
}

// GetStringSlice 获取字符串切片配置值
func GetStringSlice(key string) []string {
	return config.GetStringSlice(key)
}

// GetStringMapString 获取字符串映射配置值
func GetStringMapString(key string) map[string]string {
	return config.GetStringMapString(key)
}

// GetSeconds 以秒为单位的配置值转换为时长
func GetSeconds(key string) time.Duration {
	return time.Duration(config.GetInt64(key)) * time.Second
}

// Set 设置配置值
func Set(key string, value interface{}) {
	config.Set(key, value)
}

// IsSet 检查配置值是否已设置
func IsSet(key string) bool {
	return config.IsSet(key)
}

// AllSettings 获取所有配置
func AllSettings() map[string]interface{} {
	return config.AllSettings()
}

// BindPFlag 将命令行参数绑定到配置项
func BindPFlag(key string, flag *pflag.Flag) error {
	return config.BindPFlag(key, flag)
}

// GetServerAddress 获取服务器地址
func GetServerAddress() string {
	return fmt.Sprintf(":%d", GetInt("server.port"))
}

// GetRedisAddress 获取Redis地址
func GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", GetString("cache.redis.host"), GetInt("cache.redis.port"))
}

// Validate 校验必需配置
func Validate() error {
	if GetString("backend.url") == "" {
		return ErrInvalidBackendConfig
	}
	if len(GetStringSlice("report.languages")) == 0 {
		return fmt.Errorf("%w: report.languages is empty", ErrInvalidConfig)
	}
	return nil
}
