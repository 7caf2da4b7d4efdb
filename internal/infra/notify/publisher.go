package notify

import (
	"context"

	"github.com/valkey-io/valkey-go"
)

// Publisher sends an encoded snapshot to interested parties.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Close()
}

// ValkeyPublisher broadcasts snapshots on a valkey pub/sub channel.
type ValkeyPublisher struct {
	client  valkey.Client
	channel string
}

// NewValkeyPublisher constructs a publisher bound to channel.
func NewValkeyPublisher(client valkey.Client, channel string) *ValkeyPublisher {
	return &ValkeyPublisher{client: client, channel: channel}
}

// Publish issues PUBLISH channel payload.
func (p *ValkeyPublisher) Publish(ctx context.Context, payload []byte) error {
	cmd := p.client.B().Publish().Channel(p.channel).Message(string(payload)).Build()
	return p.client.Do(ctx, cmd).Error()
}

// Close releases the underlying connection pool.
func (p *ValkeyPublisher) Close() {
	p.client.Close()
}

// NopPublisher drops every snapshot. Used when notifications are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []byte) error { return nil }

func (NopPublisher) Close() {}

var (
	_ Publisher = (*ValkeyPublisher)(nil)
	_ Publisher = NopPublisher{}
)
