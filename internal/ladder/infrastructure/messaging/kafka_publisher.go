// Package messaging 把梯级事件发布到 Kafka
package messaging

import (
	"context"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

// Sender 消息发送方，由 mq.KafkaProducer 实现
type Sender interface {
	SendMessage(ctx context.Context, topic, key string, value any) error
}

// KafkaPublisher 事件发布器，主题名可加前缀
type KafkaPublisher struct {
	sender Sender
	prefix string
}

// NewKafkaPublisher 创建事件发布器
func NewKafkaPublisher(sender Sender, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{sender: sender, prefix: topicPrefix}
}

// Publish 实现 domain.EventPublisher
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	return p.sender.SendMessage(ctx, p.prefix+topic, key, event)
}

// NopPublisher 未启用 Kafka 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }

var (
	_ domain.EventPublisher = (*KafkaPublisher)(nil)
	_ domain.EventPublisher = NopPublisher{}
)
