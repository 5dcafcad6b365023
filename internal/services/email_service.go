package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"immitrack/internal/models"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier mails completion notices and digests to the configured recipients.
type EmailNotifier struct {
	sender mailSender
	from   string
	to     []string
}

func NewEmailNotifier(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, to []string) *EmailNotifier {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &EmailNotifier{sender: dialer, from: fromEmail, to: to}
}

func (s *EmailNotifier) newMessage(subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *EmailNotifier) TaskCompleted(_ context.Context, task models.Task) error {
	if len(s.to) == 0 {
		return nil
	}
	body := fmt.Sprintf(`
		<h2>Tâche terminée : %s</h2>
		<p>%s</p>
		<p>Ariane et Pavel ont tous les deux validé cette étape.</p>
		<p>Coût estimé : <strong>%s</strong></p>
	`, html.EscapeString(task.Title), html.EscapeString(task.Description), models.FormatCost(task.Cost))

	if err := s.sender.DialAndSend(s.newMessage("✔ "+task.Title, body)); err != nil {
		return fmt.Errorf("failed to send completion email: %w", err)
	}
	return nil
}

func (s *EmailNotifier) Digest(_ context.Context, d Digest) error {
	if len(s.to) == 0 || d.Empty() {
		return nil
	}
	subject := fmt.Sprintf("Dossier : %d en retard, %d à venir", len(d.Late), len(d.Upcoming))
	if err := s.sender.DialAndSend(s.newMessage(subject, renderDigestHTML(d))); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	return nil
}

func renderDigestHTML(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Progression : %d%%</h2>", d.Stats.Progress)
	fmt.Fprintf(&b, "<p>%d / %d tâches terminées, %d critiques restantes.</p>",
		d.Stats.Completed, d.Stats.Total, d.Stats.Critical)

	section := func(title string, items []DigestItem) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "<h3>%s</h3><ul>", title)
		for _, it := range items {
			fmt.Fprintf(&b, "<li><strong>%s</strong> (%s, J%+d) : %s</li>",
				html.EscapeString(it.Task.Title), deadlineLabel(it.Task), it.DaysRemaining,
				models.FormatCost(it.Task.Cost))
		}
		b.WriteString("</ul>")
	}
	section("En retard", d.Late)
	section(fmt.Sprintf("Dans les %d prochains jours", d.HorizonDays), d.Upcoming)
	return b.String()
}
