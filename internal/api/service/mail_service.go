package service

import (
	"fmt"

	"intranet"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

// MailService sends portal email through the application-level SMTP config.
// It implements NotificationSender.
type MailService struct {
	logger zerolog.Logger
}

func NewMailService(logger zerolog.Logger) *MailService {
	return &MailService{logger: logger}
}

func (s *MailService) SendEmail(to string, subject string, htmlBody string) error {
	cfg := intranet.GetConfig().SmtpConfig
	if cfg.Host == "" || cfg.Username == "" {
		return fmt.Errorf("SMTP not configured (SMTP_HOST / SMTP_USERNAME missing)")
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return fmt.Errorf("failed to set from: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("failed to set to: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextHTML, htmlBody)

	tlsPolicy := gomail.TLSOpportunistic
	if cfg.UseTLS {
		tlsPolicy = gomail.TLSMandatory
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy),
	}
	if cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}
