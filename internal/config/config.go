// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig Kafka 消息队列配置
// 通知事件既可以走进程内 channel（单机默认），也可以走 Kafka（分布式部署）
type KafkaConfig struct {
	NotifyMode  string        `toml:"notifyMode"`  // 通知分发模式："channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	NotifyTopic string        `toml:"notifyTopic"` // 通知事件主题
	Partition   int           `toml:"partition"`   // 分区数
	Timeout     time.Duration `toml:"timeout"`     // 超时时间
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret             string `toml:"secret"`             // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // Access Token 有效期（分钟）
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // Refresh Token 有效期（小时）
}

// EmailConfig 邮件通知渠道配置（SMTP）
type EmailConfig struct {
	SmtpHost string `toml:"smtpHost"` // SMTP 服务器地址
	SmtpPort int    `toml:"smtpPort"` // SMTP 端口，如 587
	Username string `toml:"username"` // SMTP 账号
	Password string `toml:"password"` // SMTP 密码或授权码
	From     string `toml:"from"`     // 发件人地址
}

// TelegramConfig Telegram 通知渠道配置（管理员告警）
type TelegramConfig struct {
	BotToken string `toml:"botToken"` // Bot Token
	ChatId   string `toml:"chatId"`   // 默认接收告警的 Chat ID
}

// WhatsAppConfig WhatsApp 通知渠道配置
type WhatsAppConfig struct {
	PhoneNumber string `toml:"phoneNumber"` // 商家 WhatsApp 号码（国际格式，不含 +）
}

// SmsConfig 短信通知渠道配置（阿里云 SMS）
type SmsConfig struct {
	AccessKeyID     string `toml:"accessKeyID"`     // 阿里云 AccessKey ID
	AccessKeySecret string `toml:"accessKeySecret"` // 阿里云 AccessKey Secret
	SignName        string `toml:"signName"`        // 短信签名名称
	TemplateCode    string `toml:"templateCode"`    // 短信模板 Code
}

// NotifyConfig 通知渠道聚合配置
// 某个渠道未配置（关键字段为空）时，该渠道被跳过，不视为错误
type NotifyConfig struct {
	AdminEmail     string         `toml:"adminEmail"` // 接收后台告警的邮箱
	EmailConfig    EmailConfig    `toml:"email"`      // 邮件渠道
	TelegramConfig TelegramConfig `toml:"telegram"`   // Telegram 渠道
	WhatsAppConfig WhatsAppConfig `toml:"whatsapp"`   // WhatsApp 渠道
	SmsConfig      SmsConfig      `toml:"sms"`        // 短信渠道
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig   `toml:"mainConfig"`   // 主配置
	MysqlConfig  `toml:"mysqlConfig"`  // MySQL 配置
	RedisConfig  `toml:"redisConfig"`  // Redis 配置
	LogConfig    `toml:"logConfig"`    // 日志配置
	KafkaConfig  `toml:"kafkaConfig"`  // Kafka 配置
	JWTConfig    `toml:"jwtConfig"`    // JWT 配置
	NotifyConfig `toml:"notifyConfig"` // 通知渠道配置
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",       // 从子目录运行时的路径
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig() // 忽略加载错误，使用默认值
	}
	return config
}
