package reporting

import (
	"context"
	"errors"
	"testing"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	channel string
	message interface{}
}

type fakeRedisClient struct {
	published []publishedMessage
	err       error
	closed    bool
}

func (f *fakeRedisClient) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.published = append(f.published, publishedMessage{channel, message})
	return redis.NewIntResult(2, nil)
}

func (f *fakeRedisClient) Close() error {
	f.closed = true
	return nil
}

func TestRedisPublisherPublishesReport(t *testing.T) {
	client := &fakeRedisClient{}
	var logger framework.CapturingLogger
	p := newRedisPublisher(client, "", &logger)

	report := makeReport("todos", makeResult("", contract.ProbeOwnerFilter, contract.Expected))
	require.NoError(t, p.Report(context.Background(), report))

	require.Len(t, client.published, 1)
	assert.Equal(t, DefaultRedisChannel, client.published[0].channel)
	data, ok := client.published[0].message.([]byte)
	require.True(t, ok)
	assert.Equal(t, "todos", ldvalue.Parse(data).GetByKey("resource").StringValue())
	require.Len(t, logger.Output(), 1)
	assert.Contains(t, logger.Output()[0].Message, "2 receivers")

	require.NoError(t, p.Close())
	assert.True(t, client.closed)
}

func TestRedisPublisherError(t *testing.T) {
	p := newRedisPublisher(&fakeRedisClient{err: errors.New("connection refused")}, "reports", nil)
	err := p.Report(context.Background(), makeReport("todos"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewRedisPublisherRejectsBadURL(t *testing.T) {
	_, err := NewRedisPublisher("http://not-redis", "", nil)
	assert.Error(t, err)

	p, err := NewRedisPublisher("redis://localhost:6379/0", "", nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
