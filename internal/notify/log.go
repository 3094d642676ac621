package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomas1pit/loop-calendar-bot/internal/metrics"
)

// LogNotifier writes rendered notifications to the structured log. It is the
// default delivery channel; messenger transports implement Notifier the same
// way.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier builds a notifier over the given logger.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, userID int64, kind Kind, payload Payload) error {
	metrics.ObserveNotification(string(kind))
	n.log.Info().
		Int64("user_id", userID).
		Str("kind", string(kind)).
		Str("message", Render(kind, payload)).
		Msg("notification")
	return nil
}
