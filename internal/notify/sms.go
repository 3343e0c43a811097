// Package notify delivers patient-facing reminders over SMS or WhatsApp.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/nvarela/terapia-platform/pkg/logging"
)

// Sender dispatches one message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender sends via the Twilio messaging API. When whatsapp is set,
// numbers are addressed through the WhatsApp channel.
type TwilioSender struct {
	client   *twilio.RestClient
	from     string
	whatsapp bool
	logger   *logging.Logger
}

// NewTwilioSender builds a sender from account credentials.
func NewTwilioSender(accountSID, authToken, from string, whatsapp bool, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{
		client:   client,
		from:     from,
		whatsapp: whatsapp,
		logger:   logger,
	}
}

// Send implements Sender.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(s.address(to))
	params.SetFrom(s.address(s.from))
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}
	s.logger.Debug("notify: message sent", "to_suffix", suffix(to))
	return nil
}

func (s *TwilioSender) address(number string) string {
	number = strings.TrimSpace(number)
	if !s.whatsapp || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// StubSender logs instead of sending. Used in tests and environments without
// Twilio credentials.
type StubSender struct {
	logger *logging.Logger
}

// NewStubSender creates a no-op sender.
func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

// Send logs the would-be message.
func (s *StubSender) Send(ctx context.Context, to, body string) error {
	s.logger.Info("stub sender: would send", "to_suffix", suffix(to), "body_preview", truncate(body, 60))
	return nil
}

func suffix(number string) string {
	number = strings.TrimSpace(number)
	if len(number) <= 4 {
		return number
	}
	return "..." + number[len(number)-4:]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure interface compliance
var _ Sender = (*TwilioSender)(nil)
var _ Sender = (*StubSender)(nil)
