package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stelle_world_server/internal/config"
	dao "stelle_world_server/internal/dao/mysql"
	myredis "stelle_world_server/internal/dao/redis"
	"stelle_world_server/internal/handler"
	"stelle_world_server/internal/https_server"
	"stelle_world_server/internal/infrastructure/logger"
	"stelle_world_server/internal/infrastructure/notify"
	"stelle_world_server/internal/service"
	"stelle_world_server/internal/service/chat"
	"stelle_world_server/pkg/util/jwt"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	zap.L().Info("JWT 初始化成功")

	// 6. 初始化验证器翻译
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("验证器翻译初始化失败", zap.Error(err))
	}

	// 7. 初始化通知分发器
	// 单机默认走进程内队列，分布式部署切 kafka 模式
	var queue notify.EventQueue
	if conf.KafkaConfig.NotifyMode == "kafka" {
		queue = notify.NewKafkaQueue(conf.KafkaConfig)
	} else {
		queue = notify.NewChannelQueue()
	}
	dispatcher := notify.NewDispatcher(queue, notify.BuildChannels(&conf.NotifyConfig), conf.NotifyConfig.AdminEmail)
	dispatcher.Start()
	zap.L().Info("通知分发器初始化成功", zap.String("mode", conf.KafkaConfig.NotifyMode))

	// 8. 初始化 Service 层 (依赖注入)
	chatService := chat.NewChatService(dao.Repos.Conversation, dao.Repos.Message, dispatcher)
	service.InitServices(dao.Repos, chatService, myredis.GetCacheService())
	zap.L().Info("Service 层初始化成功")

	// 9. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(service.Svc)
	engine := https_server.Init(handlers)
	zap.L().Info("HTTP 服务器初始化成功")

	// 10. 启动服务
	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	dispatcher.Close()
	zap.L().Info("服务器已关闭")
}
