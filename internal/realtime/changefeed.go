// Package realtime carries coarse "table changed" signals between the
// store and interested viewers. Notifications carry no diff payload;
// subscribers must treat every signal as "something changed, re-derive
// views" against the authoritative store.
package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "changefeed:"

// Tables that emit change signals.
const (
	TableTickets    = "tickets"
	TableCategories = "categories"
	TableArticles   = "articles"
)

// ChangeFeed publishes and subscribes change signals over redis pub/sub.
type ChangeFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewChangeFeed builds a feed over the shared redis client. A nil client
// produces a feed whose publishes are dropped.
func NewChangeFeed(client *redis.Client, logger *zap.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, logger: logger}
}

// Notify signals that a table changed. Best-effort: failures are logged,
// never surfaced to the mutation that triggered them.
func (f *ChangeFeed) Notify(ctx context.Context, table string) {
	if f == nil || f.client == nil {
		return
	}
	if err := f.client.Publish(ctx, channelPrefix+table, table).Err(); err != nil {
		f.logger.Warn("change feed publish failed",
			zap.String("table", table),
			zap.Error(err))
	}
}

// Subscribe returns a channel that receives one signal per change to the
// table until ctx is cancelled. The signal carries no payload.
func (f *ChangeFeed) Subscribe(ctx context.Context, table string) <-chan struct{} {
	signals := make(chan struct{}, 1)
	if f == nil || f.client == nil {
		close(signals)
		return signals
	}

	sub := f.client.Subscribe(ctx, channelPrefix+table)
	go func() {
		defer close(signals)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// Coalesce: a pending signal already means "re-derive".
				select {
				case signals <- struct{}{}:
				default:
				}
			}
		}
	}()
	return signals
}
