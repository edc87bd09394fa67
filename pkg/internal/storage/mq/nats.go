// NATS 工厂：创建基于 watermill-nats 的 Publisher 与 Subscriber.
package mq

import (
	"context"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	wnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/streamweave/pkg/configs"
)

const defaultDrainTimeout = 30 * time.Second

// init 注册 NATS 工厂.
func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.ClientID),
		nc.MaxReconnects(cfg.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.ReconnectWait) * time.Second),
		nc.DrainTimeout(defaultDrainTimeout),
		nc.RetryOnFailedConnect(true),
	}

	if cfg.User != "" {
		opts = append(opts, nc.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

func natsFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := buildNatsOptions(cfg)
	jsCfg := wnats.JetStreamConfig{Disabled: true}

	pub, err := wnats.NewPublisher(wnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		JetStream:   jsCfg,
		Marshaler:   &wnats.NATSMarshaler{},
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := wnats.NewSubscriber(wnats.SubscriberConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		JetStream:   jsCfg,
		Unmarshaler: &wnats.NATSMarshaler{},
	}, logger)
	if err != nil {
		_ = pub.Close()

		return nil, nil, err
	}

	return pub, sub, nil
}
