// ABOUTME: Gmail API transport using users.messages.send
// ABOUTME: Authenticates with the stored OAuth token and sends raw RFC 5322 messages
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/outreach"
)

type GmailTransport struct {
	service  *gmail.Service
	from     string
	fromName string
	now      func() time.Time
}

// NewGmailTransport builds a Gmail API client from the token at tokenPath.
func NewGmailTransport(ctx context.Context, cfg config.MailConfig, tokenPath string) (*GmailTransport, error) {
	client, err := authorizedClient(ctx, "gmail transport", tokenPath)
	if err != nil {
		return nil, err
	}
	return newGmailTransport(ctx, client, cfg)
}

// authorizedClient returns an HTTP client that refreshes the stored token.
func authorizedClient(ctx context.Context, op, tokenPath string) (*http.Client, error) {
	oauthCfg := NewOAuthConfig()
	if err := CheckOAuthConfig(oauthCfg); err != nil {
		return nil, outreach.NewConfigError(op, fmt.Errorf("%w: %v", outreach.ErrMissingCredentials, err))
	}

	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, outreach.NewConfigError(op,
			fmt.Errorf("%w: run 'prospect auth' first: %v", outreach.ErrMissingCredentials, err))
	}
	return oauthCfg.Client(ctx, token), nil
}

func newGmailTransport(ctx context.Context, client *http.Client, cfg config.MailConfig, opts ...option.ClientOption) (*GmailTransport, error) {
	opts = append(opts, option.WithHTTPClient(client))
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailTransport{service: service, from: cfg.GmailUser, fromName: cfg.FromName, now: time.Now}, nil
}

// Send posts the message as the authenticated user. The returned message ID
// is Gmail's own identifier.
func (t *GmailTransport) Send(ctx context.Context, msg outreach.Message) (outreach.SendResult, error) {
	env := envelope{
		FromName:  t.fromName,
		FromAddr:  t.from,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		MessageID: newMessageID(t.from),
		Date:      t.now(),
	}

	data, err := env.bytes()
	if err != nil {
		return outreach.SendResult{}, err
	}

	raw := base64.URLEncoding.EncodeToString(data)
	sent, err := t.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return outreach.SendResult{}, fmt.Errorf("gmail send failed: %w", err)
	}
	return outreach.SendResult{MessageID: sent.Id}, nil
}
