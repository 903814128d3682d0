package kafka

import (
	"context"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

// EventProducer publishes chat lifecycle events to the event stream.
type EventProducer interface {
	ProduceEvent(ctx context.Context, evt *domain.ChatEvent) error
	Close() error
}
