// ABOUTME: AgentMail HTTP API transport
// ABOUTME: Posts messages to an AgentMail inbox with bearer key authentication
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/outreach"
)

type AgentMailTransport struct {
	baseURL string
	apiKey  string
	inbox   string
	client  *http.Client
}

type agentMailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type agentMailResponse struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

func NewAgentMailTransport(cfg config.MailConfig) (*AgentMailTransport, error) {
	if cfg.AgentMailAPIKey == "" || cfg.AgentMailInbox == "" {
		return nil, outreach.NewConfigError("agentmail transport",
			fmt.Errorf("%w: set AGENTMAIL_API_KEY and AGENTMAIL_EMAIL", outreach.ErrMissingCredentials))
	}
	return &AgentMailTransport{
		baseURL: strings.TrimSuffix(cfg.AgentMailBaseURL, "/"),
		apiKey:  cfg.AgentMailAPIKey,
		inbox:   cfg.AgentMailInbox,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (t *AgentMailTransport) Send(ctx context.Context, msg outreach.Message) (outreach.SendResult, error) {
	payload, err := json.Marshal(agentMailRequest{To: msg.To, Subject: msg.Subject, Text: msg.Body})
	if err != nil {
		return outreach.SendResult{}, err
	}

	endpoint := fmt.Sprintf("%s/inboxes/%s/messages/send", t.baseURL, url.PathEscape(t.inbox))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return outreach.SendResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return outreach.SendResult{}, fmt.Errorf("agentmail request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return outreach.SendResult{}, fmt.Errorf("failed to read agentmail response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return outreach.SendResult{}, fmt.Errorf("agentmail API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out agentMailResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return outreach.SendResult{}, fmt.Errorf("failed to decode agentmail response: %w", err)
		}
	}
	return outreach.SendResult{MessageID: out.MessageID}, nil
}
