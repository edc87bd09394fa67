// channel 工厂：进程内 gochannel 实现，便于测试与单机部署.
package mq

import (
	"context"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/streamweave/pkg/configs"
)

// init 注册 channel 工厂.
func init() {
	RegisterFactory(configs.MQTypeChannel, channelFactory)
}

func channelFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{}, logger)

	// gochannel 同时实现 Publisher 与 Subscriber
	return ps, ps, nil
}
