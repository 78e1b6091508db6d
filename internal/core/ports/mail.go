package ports

import "context"

// MailMessage is the payload handed to the mail collaborator.
type MailMessage struct {
	To      string
	Subject string
	HTML    string
}

// MailSender defines the fire-and-forget mail collaborator. Send returns
// when the message was handed off, not when it was delivered.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) error
}
