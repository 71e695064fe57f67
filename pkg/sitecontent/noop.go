package sitecontent

import (
	"context"

	"go.uber.org/zap"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ItemCreated(ctx context.Context, item *Item) error { return nil }

func (n *NoopEventSink) ItemUpdated(ctx context.Context, item *Item) error { return nil }

func (n *NoopEventSink) ItemDeleted(ctx context.Context, item *Item) error { return nil }

// LoggingEventSink writes every event to a zap logger at info level.
type LoggingEventSink struct {
	logger *zap.Logger
}

// NewLoggingEventSink creates an event sink that logs to logger.
func NewLoggingEventSink(logger *zap.Logger) EventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingEventSink{logger: logger.Named("events")}
}

func (l *LoggingEventSink) ItemCreated(ctx context.Context, item *Item) error {
	l.logger.Info("item created", itemFields(item)...)
	return nil
}

func (l *LoggingEventSink) ItemUpdated(ctx context.Context, item *Item) error {
	l.logger.Info("item updated", itemFields(item)...)
	return nil
}

func (l *LoggingEventSink) ItemDeleted(ctx context.Context, item *Item) error {
	l.logger.Info("item deleted", itemFields(item)...)
	return nil
}

func itemFields(item *Item) []zap.Field {
	if item == nil {
		return nil
	}
	return []zap.Field{
		zap.String("id", item.ID),
		zap.String("type", string(item.Type)),
		zap.String("slug", item.Slug),
		zap.String("status", string(item.Status)),
	}
}
