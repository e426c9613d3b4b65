// ABOUTME: SMTP transport for sending through Gmail with an app password
// ABOUTME: Uses go-mail with PLAIN auth over mandatory STARTTLS and a Message-ID per send
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/outreach"
)

const smtpTimeout = 30 * time.Second

type sendFunc func(ctx context.Context, msgs ...*gomail.Msg) error

type SMTPTransport struct {
	host     string
	port     int
	user     string
	fromName string
	send     sendFunc
	now      func() time.Time
}

// NewSMTPTransport validates credentials up front so a campaign fails before
// the first prospect rather than bouncing every one of them.
func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	if cfg.GmailUser == "" || cfg.GmailAppPassword == "" {
		return nil, outreach.NewConfigError("smtp transport",
			fmt.Errorf("%w: set GMAIL_USER and GMAIL_APP_PASSWORD", outreach.ErrMissingCredentials))
	}

	client, err := gomail.NewClient(cfg.SMTPHost,
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.GmailUser),
		gomail.WithPassword(cfg.GmailAppPassword),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(smtpTimeout),
	)
	if err != nil {
		return nil, outreach.NewConfigError("smtp transport", err)
	}

	return &SMTPTransport{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.GmailUser,
		fromName: cfg.FromName,
		send:     client.DialAndSendWithContext,
		now:      time.Now,
	}, nil
}

// Send delivers one message on its own connection; ctx bounds dial and delivery.
func (t *SMTPTransport) Send(ctx context.Context, msg outreach.Message) (outreach.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return outreach.SendResult{}, err
	}

	env := envelope{
		FromName:  t.fromName,
		FromAddr:  t.user,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		MessageID: newMessageID(t.user),
		Date:      t.now(),
	}
	m, err := env.message()
	if err != nil {
		return outreach.SendResult{}, err
	}

	if err := t.send(ctx, m); err != nil {
		return outreach.SendResult{}, err
	}
	return outreach.SendResult{MessageID: env.headerID()}, nil
}
