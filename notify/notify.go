// Package notify mails a summary of every confirmed batch.
package notify

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"pricesync/config"
	"pricesync/models"
)

type Notifier interface {
	BatchConfirmed(batch models.Batch) error
}

// Nop is used when no SMTP server is configured.
type Nop struct{}

func (Nop) BatchConfirmed(models.Batch) error { return nil }

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	to     string
	dialer sender
}

// New returns Nop unless the e-mail settings are complete.
func New(cfg config.Email) Notifier {
	if !cfg.Enabled() {
		return Nop{}
	}
	return &Mailer{
		from:   cfg.From,
		to:     cfg.ReportTo,
		dialer: gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

func (m *Mailer) BatchConfirmed(batch models.Batch) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", Subject(batch))
	msg.SetBody("text/plain", Body(batch))

	if err := m.dialer.DialAndSend(msg); err != nil {
		zap.L().Error("batch summary not sent", zap.String("batch_id", batch.ID), zap.Error(err))
		return err
	}
	return nil
}

func Subject(batch models.Batch) string {
	return fmt.Sprintf("Price sync %s: %d/%d updated", batch.CreatedAt.Format("02/01/06 15:04"), batch.Succeeded, batch.Total)
}

func Body(batch models.Batch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s\n", batch.ID)
	fmt.Fprintf(&b, "%d of %d rows updated\n\n", batch.Succeeded, batch.Total)

	for _, r := range batch.Results {
		line := fmt.Sprintf("%-30s %-14s", r.SKU, r.Status)
		if r.Data != nil {
			if r.Data.Price != "" {
				line += " $" + FormatPrice(r.Data.Price)
			}
			if r.Data.Date != "" {
				line += " " + r.Data.Date
			}
		}
		if r.Message != "" {
			line += " (" + r.Message + ")"
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return b.String()
}

// FormatPrice renders a canonical decimal string with dot thousands and a
// comma decimal separator, the way the uploaded sheets write prices.
func FormatPrice(price string) string {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return price
	}
	f, _ := d.Float64()
	return humanize.FormatFloat("#.###,##", f)
}
