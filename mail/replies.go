// ABOUTME: Gmail inbox search for replies to outreach
// ABOUTME: Implements outreach.ReplySource with batched from: queries and metadata fetches
package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/harperreed/prospect/outreach"
)

const (
	maxGmailResults = 500 // Gmail API max per page

	// addressesPerQuery keeps from:(a OR b ...) well under the query length limit
	addressesPerQuery = 20
)

// GmailReplySource searches the authorized user's mailbox.
type GmailReplySource struct {
	service *gmail.Service
}

// NewGmailReplySource builds a reply source from the token at tokenPath.
func NewGmailReplySource(ctx context.Context, tokenPath string) (*GmailReplySource, error) {
	client, err := authorizedClient(ctx, "gmail reply check", tokenPath)
	if err != nil {
		return nil, err
	}
	return newGmailReplySource(ctx, client)
}

func newGmailReplySource(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*GmailReplySource, error) {
	opts = append(opts, option.WithHTTPClient(client))
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailReplySource{service: service}, nil
}

// FindMessagesFrom lists messages sent by any of addresses since the given
// day. Messages the user sent are excluded.
func (s *GmailReplySource) FindMessagesFrom(ctx context.Context, addresses []string, since time.Time) ([]outreach.InboundMessage, error) {
	var messages []outreach.InboundMessage
	seen := make(map[string]bool)

	for start := 0; start < len(addresses); start += addressesPerQuery {
		end := min(start+addressesPerQuery, len(addresses))
		query := BuildReplyQuery(addresses[start:end], since)

		var ids []string
		err := s.service.Users.Messages.List("me").Q(query).MaxResults(maxGmailResults).
			Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
				for _, m := range resp.Messages {
					if !seen[m.Id] {
						seen[m.Id] = true
						ids = append(ids, m.Id)
					}
				}
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, id := range ids {
			msg, err := s.fetch(ctx, id)
			if err != nil {
				return nil, err
			}
			if msg.From != "" {
				messages = append(messages, msg)
			}
		}
	}
	return messages, nil
}

func (s *GmailReplySource) fetch(ctx context.Context, id string) (outreach.InboundMessage, error) {
	message, err := s.service.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("From", "Subject", "Date").
		Context(ctx).Do()
	if err != nil {
		return outreach.InboundMessage{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	headers := parseHeaders(message.Payload)
	msg := outreach.InboundMessage{ID: message.Id, Subject: headers["Subject"]}

	if addr, err := mail.ParseAddress(headers["From"]); err == nil {
		msg.From = addr.Address
	}

	// InternalDate is when Gmail received it; the Date header is the fallback
	if message.InternalDate > 0 {
		msg.Date = time.UnixMilli(message.InternalDate).UTC()
	} else if d, err := mail.ParseDate(headers["Date"]); err == nil {
		msg.Date = d.UTC()
	}
	return msg, nil
}

// BuildReplyQuery returns a Gmail search for mail from addresses received on
// or after since's day.
func BuildReplyQuery(addresses []string, since time.Time) string {
	parts := []string{fmt.Sprintf("from:(%s)", strings.Join(addresses, " OR ")), "-from:me"}
	if !since.IsZero() {
		// after: is exclusive and day-granular
		parts = append(parts, "after:"+since.AddDate(0, 0, -1).Format("2006/01/02"))
	}
	parts = append(parts, "-in:spam", "-in:trash")
	return strings.Join(parts, " ")
}

func parseHeaders(payload *gmail.MessagePart) map[string]string {
	headers := make(map[string]string)
	if payload == nil {
		return headers
	}
	for _, h := range payload.Headers {
		headers[h.Name] = h.Value
	}
	return headers
}
