package notify

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"stelle_world_server/internal/config"
)

// kafkaQueue EventQueue 的 Kafka 实现
// 分布式部署时使用：多个实例共享一个通知主题，由消费组保证每条事件只投递一次
type kafkaQueue struct {
	producer *kafka.Writer
	consumer *kafka.Reader
	done     chan struct{}
}

// NewKafkaQueue 创建 Kafka 事件队列
func NewKafkaQueue(cfg config.KafkaConfig) EventQueue {
	producer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.HostPort),
		Topic:                  cfg.NotifyTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.Timeout * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.HostPort},
		Topic:          cfg.NotifyTopic,
		CommitInterval: cfg.Timeout * time.Second,
		GroupID:        "notify",
		StartOffset:    kafka.LastOffset,
	})
	return &kafkaQueue{
		producer: producer,
		consumer: consumer,
		done:     make(chan struct{}),
	}
}

// Publish 事件写入 Kafka
func (q *kafkaQueue) Publish(ctx context.Context, data []byte) error {
	return q.producer.WriteMessages(ctx, kafka.Message{
		Value: data,
	})
}

// Start 启动消费 goroutine
func (q *kafkaQueue) Start(handler func(data []byte)) {
	go func() {
		for {
			select {
			case <-q.done:
				return
			default:
			}
			message, err := q.consumer.ReadMessage(context.Background())
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				zap.L().Error("kafka 读取通知事件失败", zap.Error(err))
				continue
			}
			handler(message.Value)
		}
	}()
}

// Close 关闭生产者和消费者
func (q *kafkaQueue) Close() {
	close(q.done)
	if err := q.producer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
	if err := q.consumer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
}
