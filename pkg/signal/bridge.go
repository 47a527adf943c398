package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mariellesantos/floracart-backend/pkg/logger"
)

var (
	errTransportRequired = errors.New("signal transport required")
	errLoggerRequired    = errors.New("signal logger required")
	errHubRequired       = errors.New("signal hub required")
)

// bridgeChannel is the shared pub/sub channel every process listens on.
const bridgeChannel = "fc:signals"

// Transport carries serialized events between processes. The Redis client
// satisfies it through its pub/sub commands.
type Transport interface {
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
}

// Bridge fans store events across process boundaries: the worker appends a
// notification, publishes through the Bridge, and the API's hub wakes its SSE
// subscribers. Delivery is best effort; a lost event only delays the next
// re-read.
type Bridge struct {
	transport Transport
	logg      *logger.Logger
}

// NewBridge wires a cross-process event bridge over the given transport.
func NewBridge(transport Transport, logg *logger.Logger) (*Bridge, error) {
	if transport == nil {
		return nil, errTransportRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &Bridge{transport: transport, logg: logg}, nil
}

// Publish sends the event to every process subscribed to the shared channel.
// Failures are logged and dropped, never surfaced to the writer.
func (b *Bridge) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logg.Warn(context.Background(), "signal event not serializable, dropping")
		return
	}
	if err := b.transport.Publish(context.Background(), bridgeChannel, string(payload)); err != nil {
		ctx := b.logg.WithField(context.Background(), "error", err.Error())
		b.logg.Warn(ctx, "signal publish failed, subscribers will catch up on next read")
	}
}

// Run pumps inbound events into the local hub until ctx is cancelled or the
// transport closes its channel. Unparseable payloads are dropped.
func (b *Bridge) Run(ctx context.Context, hub *Hub) error {
	if hub == nil {
		return errHubRequired
	}
	messages, err := b.transport.Subscribe(ctx, bridgeChannel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(raw), &event); err != nil {
				b.logg.Warn(ctx, "dropping unparseable signal payload")
				continue
			}
			hub.Publish(event)
		}
	}
}
