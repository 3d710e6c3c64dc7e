package reporting

import (
	"context"
	"fmt"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the channel that reports are published to unless configured otherwise.
const DefaultRedisChannel = "crud-contract-tests:reports"

type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes each finished report as a JSON message on a Redis channel. Nothing is
// stored; subscribers that are not listening at the time miss the message.
type RedisPublisher struct {
	client  redisPublishClient
	channel string
	logger  framework.Logger
}

// NewRedisPublisher connects to the Redis server at redisURL, such as "redis://localhost:6379/0".
// The connection is made lazily on the first publish.
func NewRedisPublisher(redisURL, channel string, logger framework.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return newRedisPublisher(redis.NewClient(opts), channel, logger), nil
}

func newRedisPublisher(client redisPublishClient, channel string, logger framework.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

func (p *RedisPublisher) Report(ctx context.Context, report contract.ProbeReport) error {
	receivers, err := p.client.Publish(ctx, p.channel, EncodeReport(report)).Result()
	if err != nil {
		return fmt.Errorf("failed to publish %s report to redis: %w", report.Resource(), err)
	}
	p.logger.Printf("Published %s report to redis channel %q (%d receivers)", report.Resource(), p.channel, receivers)
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
