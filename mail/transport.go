// ABOUTME: Transport selection from configuration
// ABOUTME: Maps the configured transport name to a concrete outreach.Transport
package mail

import (
	"context"
	"fmt"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/outreach"
)

// New returns the transport named by cfg.Transport. Missing credentials and
// unknown names are configuration errors.
func New(ctx context.Context, cfg config.MailConfig, tokenPath string) (outreach.Transport, error) {
	var (
		t   outreach.Transport
		err error
	)
	switch cfg.Transport {
	case config.TransportSMTP, "":
		t, err = NewSMTPTransport(cfg)
	case config.TransportGmail:
		t, err = NewGmailTransport(ctx, cfg, tokenPath)
	case config.TransportAgentMail:
		t, err = NewAgentMailTransport(cfg)
	default:
		err = outreach.NewConfigError("select transport", fmt.Errorf("unknown transport %q", cfg.Transport))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
