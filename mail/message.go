// ABOUTME: RFC 5322 message assembly shared by the SMTP and Gmail API transports
// ABOUTME: Builds go-mail messages with parsed addresses, a Message-ID and a fixed Date
package mail

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// envelope is everything needed to render one outgoing message.
type envelope struct {
	FromName  string
	FromAddr  string
	To        string
	Subject   string
	Body      string
	MessageID string // without angle brackets
	Date      time.Time
}

// newMessageID returns "uuid@host" where host is the sender's domain.
func newMessageID(from string) string {
	host := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		host = from[at+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.NewString(), host)
}

// headerID is the Message-ID as it appears in the header and the outreach log.
func (e envelope) headerID() string {
	return "<" + e.MessageID + ">"
}

// message parses every address, so a recipient carrying CR/LF or more than
// one address is rejected here instead of reaching the wire.
func (e envelope) message() (*gomail.Msg, error) {
	m := gomail.NewMsg()
	// Gmail fills in From for the authenticated user when it is left out
	if e.FromAddr != "" {
		var err error
		if e.FromName != "" {
			err = m.FromFormat(e.FromName, e.FromAddr)
		} else {
			err = m.From(e.FromAddr)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid sender address %q: %w", e.FromAddr, err)
		}
	}
	if err := m.To(e.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", e.To, err)
	}
	m.Subject(e.Subject)
	m.SetDateWithValue(e.Date)
	m.SetMessageIDWithValue(e.MessageID)
	m.SetBodyString(gomail.TypeTextPlain, e.Body)
	return m, nil
}

func (e envelope) bytes() ([]byte, error) {
	m, err := e.message()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}
	return buf.Bytes(), nil
}
