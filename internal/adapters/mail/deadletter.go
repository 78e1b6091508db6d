package mail

import (
	"context"

	"github.com/rs/zerolog"

	"scholarfund/internal/core/ports"
	"scholarfund/internal/core/service"
)

// SubscribeDeadLetters attaches a structured log sink to the
// notification dead-letter topic. The shape is stable so a later
// reconciliation job can replay failed sends from the log stream.
func SubscribeDeadLetters(bus ports.EventBus, baseLogger *zerolog.Logger) {
	log := baseLogger.With().Str("component", "mail_dead_letter").Logger()

	bus.Subscribe(ports.TopicNotificationDeadLetter, func(ctx context.Context, event ports.Event) error {
		dl, ok := event.Data.(service.DeadLetter)
		if !ok {
			log.Error().Str("topic", event.Topic).Msg("Unexpected dead-letter payload type")
			return nil
		}
		log.Warn().
			Str("user_id", dl.UserID.String()).
			Str("status", string(dl.Status)).
			Str("to", dl.To).
			Str("subject", dl.Subject).
			Str("error", dl.Err).
			Msg("Notification dead-lettered")
		return nil
	})
}
