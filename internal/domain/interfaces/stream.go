package interfaces

import (
	"context"
	"errors"

	"quotesignal/internal/domain/entity/quote"
)

// ErrSubscriptionClosed is returned by a Subscriber whose transport has gone away.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Subscriber delivers inbound payloads without blocking the caller for long.
// A false second return value means no message was available, which is not an error.
type Subscriber interface {
	TryReceive(ctx context.Context) ([]byte, bool, error)
}

// Publisher sends one encoded payload downstream without retrying.
type Publisher interface {
	TryPublish(ctx context.Context, payload []byte) error
}

// Recorder receives every record that was published successfully.
type Recorder interface {
	Record(ctx context.Context, record quote.Record) error
}
