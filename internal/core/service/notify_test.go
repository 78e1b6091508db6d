package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/adapters/memory"
	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

func newNotifyFixture() (*NotificationDispatcher, *recordingMailSender, *memory.UserDirectory, *recordingBus) {
	nopLogger := zerolog.Nop()
	sender := &recordingMailSender{}
	directory := memory.NewUserDirectory()
	bus := &recordingBus{}
	return NewNotificationDispatcher(sender, directory, bus, &nopLogger), sender, directory, bus
}

func TestNotify_Dispatches(t *testing.T) {
	d, sender, directory, bus := newNotifyFixture()
	userID := uuid.New()
	directory.Put(userID, "ada@example.org")

	ok := d.Notify(context.Background(), userID, domain.StatusApproved, NotifyContext{FullName: "Ada"})
	if !ok {
		t.Fatal("Notify = false, want true")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("hand-offs = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].To != "ada@example.org" {
		t.Errorf("to = %q", sender.sent[0].To)
	}
	if sender.sent[0].Subject == "" || sender.sent[0].HTML == "" {
		t.Errorf("empty message: %+v", sender.sent[0])
	}
	if len(bus.topics()) != 0 {
		t.Errorf("dead letters on success: %v", bus.topics())
	}
}

// Statuses without a template are silent: no mail, no dead letter.
func TestNotify_SilentStatuses(t *testing.T) {
	d, sender, directory, bus := newNotifyFixture()
	userID := uuid.New()
	directory.Put(userID, "ada@example.org")

	for _, s := range []domain.VerificationStatus{domain.StatusDraft, domain.StatusAbandoned, domain.StatusUnderInvestigation, domain.StatusExpired, domain.StatusPermanentlyBanned} {
		if d.Notify(context.Background(), userID, s, NotifyContext{}) {
			t.Errorf("Notify(%s) = true, want false", s)
		}
	}
	if len(sender.sent) != 0 || len(bus.topics()) != 0 {
		t.Errorf("silent statuses produced traffic: sent=%d topics=%v", len(sender.sent), bus.topics())
	}
}

func TestNotify_UnknownRecipientDeadLetters(t *testing.T) {
	d, sender, _, bus := newNotifyFixture()
	userID := uuid.New()

	if d.Notify(context.Background(), userID, domain.StatusRejected, NotifyContext{FullName: "Ada"}) {
		t.Fatal("Notify = true with no directory entry")
	}
	if len(sender.sent) != 0 {
		t.Errorf("mail handed off without an address: %+v", sender.sent)
	}
	if !bus.published(ports.TopicNotificationDeadLetter) {
		t.Fatal("no dead letter published")
	}
	dl, ok := bus.events[0].Data.(DeadLetter)
	if !ok {
		t.Fatalf("dead letter payload = %T", bus.events[0].Data)
	}
	if dl.UserID != userID || dl.Status != domain.StatusRejected || dl.Err == "" {
		t.Errorf("dead letter = %+v", dl)
	}
}

func TestNotify_SendFailureDeadLetters(t *testing.T) {
	d, sender, directory, bus := newNotifyFixture()
	userID := uuid.New()
	directory.Put(userID, "ada@example.org")
	sender.fail = errors.New("relay refused connection")

	if d.Notify(context.Background(), userID, domain.StatusSuspended, NotifyContext{FullName: "Ada", Reason: "audit"}) {
		t.Fatal("Notify = true on a failed hand-off")
	}
	if !bus.published(ports.TopicNotificationDeadLetter) {
		t.Fatal("no dead letter published")
	}
	dl := bus.events[0].Data.(DeadLetter)
	if dl.To != "ada@example.org" {
		t.Errorf("dead letter To = %q, want the resolved address", dl.To)
	}
}
