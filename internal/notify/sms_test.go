package notify

import (
	"context"
	"testing"
)

func TestAddressWhatsAppPrefix(t *testing.T) {
	tests := []struct {
		name     string
		whatsapp bool
		number   string
		want     string
	}{
		{"whatsapp adds prefix", true, "+5491122334455", "whatsapp:+5491122334455"},
		{"whatsapp keeps existing prefix", true, "whatsapp:+5491122334455", "whatsapp:+5491122334455"},
		{"sms leaves number alone", false, "+5491122334455", "+5491122334455"},
		{"trims whitespace", true, " +549112 ", "whatsapp:+549112"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &TwilioSender{whatsapp: tt.whatsapp}
			if got := s.address(tt.number); got != tt.want {
				t.Errorf("address(%q) = %q, want %q", tt.number, got, tt.want)
			}
		})
	}
}

func TestStubSenderNeverFails(t *testing.T) {
	s := NewStubSender(nil)
	if err := s.Send(context.Background(), "+5491122334455", "Recordatorio de sesión"); err != nil {
		t.Fatalf("stub send returned error: %v", err)
	}
}

func TestSuffixHidesNumber(t *testing.T) {
	if got := suffix("+5491122334455"); got != "...4455" {
		t.Errorf("suffix = %q", got)
	}
	if got := suffix("123"); got != "123" {
		t.Errorf("short numbers pass through, got %q", got)
	}
}
