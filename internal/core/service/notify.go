package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// NotifyContext carries the per-message substitutions.
type NotifyContext struct {
	FullName string
	Reason   string
	Message  string
}

// DeadLetter is the payload published when a dispatch fails. It gives
// reconciliation enough to retry the send later.
type DeadLetter struct {
	UserID  uuid.UUID
	Status  domain.VerificationStatus
	To      string
	Subject string
	Err     string
}

type mailTemplate struct {
	subject string
	body    func(nc NotifyContext) string
}

// mailTemplates maps each user-facing status to its message. Statuses
// with no entry (DRAFT, ABANDONED, the terminal investigation states the
// user is told about separately) produce no notification at all.
var mailTemplates = map[domain.VerificationStatus]mailTemplate{
	domain.StatusPendingReview: {
		subject: "Your verification was submitted",
		body: func(nc NotifyContext) string {
			return fmt.Sprintf("<p>Hi %s,</p><p>Your student verification has been submitted and is now waiting for review. We will email you once a decision is made.</p>", nc.FullName)
		},
	},
	domain.StatusApproved: {
		subject: "You're verified!",
		body: func(nc NotifyContext) string {
			return fmt.Sprintf("<p>Hi %s,</p><p>Your student verification was approved. You can now run campaigns and receive payouts.</p>", nc.FullName)
		},
	},
	domain.StatusRejected: {
		subject: "Your verification was not approved",
		body: func(nc NotifyContext) string {
			return fmt.Sprintf("<p>Hi %s,</p><p>Your student verification was not approved.</p><p>Reason: %s</p><p>%s</p>", nc.FullName, nc.Reason, nc.Message)
		},
	},
	domain.StatusNeedsMoreInfo: {
		subject: "We need more information",
		body: func(nc NotifyContext) string {
			return fmt.Sprintf("<p>Hi %s,</p><p>We need a little more from you to finish your verification.</p><p>%s</p>", nc.FullName, nc.Message)
		},
	},
	domain.StatusSuspended: {
		subject: "Your verification was suspended",
		body: func(nc NotifyContext) string {
			return fmt.Sprintf("<p>Hi %s,</p><p>Your verification has been suspended and your campaigns are paused while we look into it.</p><p>Reason: %s</p>", nc.FullName, nc.Reason)
		},
	},
	domain.StatusRevoked: {
		subject: "Your verification was revoked",
		body: func(nc NotifyContext) string {
			return fmt.Sprintf("<p>Hi %s,</p><p>Your verification has been revoked and your campaigns have been cancelled.</p><p>Reason: %s</p>", nc.FullName, nc.Reason)
		},
	},
}

// NotificationDispatcher turns a committed status change into a mail
// hand-off. Failures never propagate: the status change already
// happened, so a broken mail pipe must not look like a broken decision.
// Failed dispatches go to the dead-letter topic instead of vanishing.
type NotificationDispatcher struct {
	mail      ports.MailSender
	directory ports.UserDirectory
	bus       ports.EventBus
	log       zerolog.Logger
}

// NewNotificationDispatcher creates the dispatcher.
func NewNotificationDispatcher(mail ports.MailSender, directory ports.UserDirectory, bus ports.EventBus, baseLogger *zerolog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		mail:      mail,
		directory: directory,
		bus:       bus,
		log:       baseLogger.With().Str("component", "notification_dispatcher").Logger(),
	}
}

// Notify reports whether a dispatch was attempted, not whether anything
// was delivered.
func (d *NotificationDispatcher) Notify(ctx context.Context, userID uuid.UUID, status domain.VerificationStatus, nc NotifyContext) bool {
	tpl, ok := mailTemplates[status]
	if !ok {
		return false
	}

	log := d.log.With().Str("user_id", userID.String()).Str("status", string(status)).Logger()

	to, err := d.directory.EmailFor(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve recipient address")
		d.deadLetter(ctx, DeadLetter{UserID: userID, Status: status, Subject: tpl.subject, Err: err.Error()})
		return false
	}

	msg := ports.MailMessage{To: to, Subject: tpl.subject, HTML: tpl.body(nc)}
	if err := d.mail.Send(ctx, msg); err != nil {
		log.Error().Err(err).Msg("Failed to hand off notification mail")
		d.deadLetter(ctx, DeadLetter{UserID: userID, Status: status, To: to, Subject: tpl.subject, Err: err.Error()})
		return false
	}

	log.Info().Str("subject", tpl.subject).Msg("Notification dispatched")
	return true
}

func (d *NotificationDispatcher) deadLetter(ctx context.Context, dl DeadLetter) {
	if err := d.bus.Publish(ctx, ports.TopicNotificationDeadLetter, dl); err != nil {
		// The dead letter is itself best-effort.
		d.log.Error().Err(err).Msg("Failed to publish notification dead letter")
	}
}
