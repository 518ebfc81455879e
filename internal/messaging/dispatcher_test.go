package messaging

import (
	"context"
	"errors"
	"testing"
)

type sentMessage struct {
	to, subject, body string
}

// stubMailer fails for the addresses listed in failFor
type stubMailer struct {
	sent    []sentMessage
	failFor map[string]error
}

func (m *stubMailer) Send(ctx context.Context, to, subject, body string) error {
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMessage{to, subject, body})
	return nil
}

type countingObserver struct {
	ok, failed int
}

func (c *countingObserver) RecordMailDelivery(err error) {
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"jane@example.com", true},
		{" jane.doe+jobs@example.co.in ", true},
		{"", false},
		{"jane", false},
		{"jane@", false},
		{"Jane Doe <jane@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.valid && err != nil {
				t.Errorf("Expected %q to be valid, got %v", tt.addr, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("Expected ErrInvalidAddress for %q, got %v", tt.addr, err)
			}
		})
	}
}

func TestSend(t *testing.T) {
	mailer := &stubMailer{}
	observer := &countingObserver{}
	d := NewDispatcher(mailer).WithObserver(observer)

	if err := d.Send(context.Background(), " jane@example.com", "Hello", "Body"); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "jane@example.com" {
		t.Errorf("Expected one trimmed delivery, got %+v", mailer.sent)
	}
	if observer.ok != 1 {
		t.Errorf("Expected one successful delivery to be observed, got %d", observer.ok)
	}

	if err := d.Send(context.Background(), "not-an-address", "Hello", "Body"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress, got %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Error("An invalid address must not reach the mailer")
	}
}

func TestSendMany_IsolatesFailures(t *testing.T) {
	mailer := &stubMailer{failFor: map[string]error{"b@example.com": errors.New("mailbox unavailable")}}
	observer := &countingObserver{}
	d := NewDispatcher(mailer).WithObserver(observer)

	report := d.SendMany(context.Background(), []string{"a@example.com", "b@example.com", "c@example.com"}, "Reminder", "Body")

	if len(report.Deliveries) != 3 {
		t.Fatalf("Expected 3 deliveries, got %d", len(report.Deliveries))
	}
	wantOK := []bool{true, false, true}
	for i, d := range report.Deliveries {
		if d.OK() != wantOK[i] {
			t.Errorf("delivery %d (%s): expected ok=%v, got err %v", i, d.Recipient, wantOK[i], d.Err)
		}
	}

	if got := report.Succeeded(); len(got) != 2 || got[0] != "a@example.com" || got[1] != "c@example.com" {
		t.Errorf("Unexpected successes: %v", got)
	}
	if failed := report.Failed(); len(failed) != 1 || failed[0].Recipient != "b@example.com" {
		t.Errorf("Unexpected failures: %+v", failed)
	}
	if observer.ok != 2 || observer.failed != 1 {
		t.Errorf("Expected 2 ok and 1 failed observations, got %d and %d", observer.ok, observer.failed)
	}
}

func TestSendMany_DedupesAndValidates(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer)

	report := d.SendMany(context.Background(),
		[]string{"Jane@Example.com", "jane@example.com ", "broken", "lead@jadehire.com"}, "Subject", "Body")

	if len(report.Deliveries) != 3 {
		t.Fatalf("Expected duplicates to be collapsed to 3 deliveries, got %+v", report.Deliveries)
	}
	if report.Deliveries[1].Recipient != "broken" || !errors.Is(report.Deliveries[1].Err, ErrInvalidAddress) {
		t.Errorf("Expected the malformed address to fail validation, got %+v", report.Deliveries[1])
	}
	if len(mailer.sent) != 2 {
		t.Errorf("Expected 2 messages handed to the mailer, got %d", len(mailer.sent))
	}
}
