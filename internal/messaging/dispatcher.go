// Package messaging sends notification emails through an injected mailer.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// ErrInvalidAddress marks a recipient rejected before any send
var ErrInvalidAddress = errors.New("invalid email address")

// Mailer delivers one plain-text message
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Observer is told about every delivery attempt
type Observer interface {
	RecordMailDelivery(err error)
}

// Delivery is the outcome for one recipient
type Delivery struct {
	Recipient string `json:"recipient"`
	Err       error  `json:"-"`
}

// OK reports whether the message was accepted for this recipient
func (d Delivery) OK() bool {
	return d.Err == nil
}

// Report lists deliveries in the order recipients were given
type Report struct {
	Deliveries []Delivery `json:"deliveries"`
}

// Succeeded returns the recipients that were sent to
func (r Report) Succeeded() []string {
	var out []string
	for _, d := range r.Deliveries {
		if d.OK() {
			out = append(out, d.Recipient)
		}
	}
	return out
}

// Failed returns the deliveries that did not go through
func (r Report) Failed() []Delivery {
	var out []Delivery
	for _, d := range r.Deliveries {
		if !d.OK() {
			out = append(out, d)
		}
	}
	return out
}

// Dispatcher validates recipients and sends through a Mailer
type Dispatcher struct {
	mailer   Mailer
	observer Observer
	log      logger.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		log:    logger.Named("messaging"),
	}
}

// WithObserver attaches an observer, e.g. the metrics manager
func (d *Dispatcher) WithObserver(observer Observer) *Dispatcher {
	d.observer = observer
	return d
}

// ValidateAddress checks that addr is a bare address such as jane@example.com
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return nil
}

// Send delivers one message
func (d *Dispatcher) Send(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if err := ValidateAddress(to); err != nil {
		return err
	}

	err := d.mailer.Send(ctx, to, subject, body)
	if d.observer != nil {
		d.observer.RecordMailDelivery(err)
	}
	if err != nil {
		d.log.Warn(ctx, "email delivery failed", logger.String("to", to), logger.Error(err))
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	d.log.Info(ctx, "email sent", logger.String("to", to), logger.String("subject", subject))
	return nil
}

// SendMany sends the same message to each recipient independently. One
// failure never stops the others; duplicates (ignoring case) are sent once.
func (d *Dispatcher) SendMany(ctx context.Context, recipients []string, subject, body string) Report {
	var report Report
	seen := make(map[string]bool, len(recipients))

	for _, to := range recipients {
		to = strings.TrimSpace(to)
		key := strings.ToLower(to)
		if seen[key] {
			continue
		}
		seen[key] = true

		report.Deliveries = append(report.Deliveries, Delivery{
			Recipient: to,
			Err:       d.Send(ctx, to, subject, body),
		})
	}

	if failed := len(report.Failed()); failed > 0 {
		d.log.Warn(ctx, "some recipients were not reached",
			logger.Int("failed", failed), logger.Int("total", len(report.Deliveries)))
	}
	return report
}
