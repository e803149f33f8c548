package connectors

import (
	"fmt"
	"strings"

	"fitout/internal"
	"fitout/internal/config"
	gmailconnector "fitout/internal/connectors/gmail"
	imapconnector "fitout/internal/connectors/imap"
)

// MailConnector pulls raw messages from one mailbox provider. Implementations
// return full RFC 5322 payloads so parsing stays out of the transport layer.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}

func New(cfg config.Config, provider string) (MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
