// ABOUTME: Tests for the SMTP transport and message assembly
// ABOUTME: Captures the built message instead of dialing a server
package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/outreach"
)

func smtpConfig() config.MailConfig {
	cfg := config.Default().Mail
	cfg.GmailUser = "quinn@example.com"
	cfg.GmailAppPassword = "abcdabcdabcdabcd"
	return cfg
}

// captureSends replaces the dialer and returns the rendered messages.
func captureSends(t *testing.T, transport *SMTPTransport) *[]string {
	t.Helper()
	var sent []string
	transport.send = func(_ context.Context, msgs ...*gomail.Msg) error {
		for _, m := range msgs {
			var buf bytes.Buffer
			_, err := m.WriteTo(&buf)
			require.NoError(t, err)
			sent = append(sent, buf.String())
		}
		return nil
	}
	return &sent
}

func TestNewSMTPTransportRequiresCredentials(t *testing.T) {
	_, err := NewSMTPTransport(config.Default().Mail)

	require.Error(t, err)
	assert.True(t, outreach.IsConfigError(err))
	assert.ErrorIs(t, err, outreach.ErrMissingCredentials)
}

func TestSMTPTransportSend(t *testing.T) {
	transport, err := NewSMTPTransport(smtpConfig())
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", transport.host)
	assert.Equal(t, 587, transport.port)

	sent := captureSends(t, transport)
	transport.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	res, err := transport.Send(context.Background(), outreach.Message{
		To:      "jane@acme.com",
		Subject: "Quick question about Acme",
		Body:    "Hi Jane,\nline two",
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)
	msg := (*sent)[0]

	assert.True(t, strings.HasPrefix(res.MessageID, "<"))
	assert.True(t, strings.HasSuffix(res.MessageID, "@example.com>"))

	assert.Contains(t, msg, `From: "Quinn" <quinn@example.com>`)
	assert.Contains(t, msg, "To: <jane@acme.com>")
	assert.Contains(t, msg, "Subject: Quick question about Acme")
	assert.Contains(t, msg, "Message-ID: "+res.MessageID)
	assert.Contains(t, msg, "Date: Mon, 02 Mar 2026 09:00:00 +0000")
	assert.Contains(t, msg, "Hi Jane,")
	assert.Contains(t, msg, "line two")
}

func TestSMTPTransportSendError(t *testing.T) {
	transport, err := NewSMTPTransport(smtpConfig())
	require.NoError(t, err)
	transport.send = func(context.Context, ...*gomail.Msg) error {
		return errors.New("550 no such user")
	}

	_, err = transport.Send(context.Background(), outreach.Message{To: "x@y.com"})
	assert.EqualError(t, err, "550 no such user")
}

func TestSMTPTransportRejectsHeaderInjection(t *testing.T) {
	transport, err := NewSMTPTransport(smtpConfig())
	require.NoError(t, err)
	sent := captureSends(t, transport)

	_, err = transport.Send(context.Background(), outreach.Message{
		To:      "a@b.com\r\nBcc: victim@evil.com",
		Subject: "hi",
		Body:    "x",
	})

	assert.ErrorContains(t, err, "invalid recipient address")
	assert.Empty(t, *sent)
}

func TestSMTPTransportRespectsCancelledContext(t *testing.T) {
	transport, err := NewSMTPTransport(smtpConfig())
	require.NoError(t, err)
	sent := captureSends(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = transport.Send(ctx, outreach.Message{To: "x@y.com"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}

func TestEnvelopeEncodesNonASCIISubject(t *testing.T) {
	env := envelope{To: "a@b.com", Subject: "Café hours", Body: "x", MessageID: "id@b.com"}

	data, err := env.bytes()
	require.NoError(t, err)
	msg := string(data)

	assert.Contains(t, msg, "Caf=C3=A9")
	assert.NotContains(t, msg, "Café hours")
	assert.NotContains(t, msg, "From:")
	assert.Contains(t, msg, "Message-ID: <id@b.com>")
}

func TestEnvelopeRejectsBadRecipients(t *testing.T) {
	for _, to := range []string{
		"a@b.com\r\nBcc: victim@evil.com",
		"a@b.com\nSubject: spoofed",
		"",
		"not an address",
	} {
		_, err := envelope{To: to, Subject: "hi", Body: "x", MessageID: "id@b.com"}.bytes()
		assert.Error(t, err, "%q", to)
	}
}

func TestNewMessageIDUsesSenderDomain(t *testing.T) {
	assert.True(t, strings.HasSuffix(newMessageID("a@acme.com"), "@acme.com"))
	assert.True(t, strings.HasSuffix(newMessageID(""), "@localhost"))
	assert.NotContains(t, newMessageID("a@acme.com"), "<")
}
