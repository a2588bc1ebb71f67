package services

import (
	"fmt"

	"circleup-api/config"
	"gopkg.in/gomail.v2"
)

// EmailService delivers relationship emails over SMTP. Used only as a
// best-effort channel of the notification dispatcher.
type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
	}
}

// SendRelationshipEmail sends a short notification email to the target account
func (es *EmailService) SendRelationshipEmail(toEmail, toName, actorName, action string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(es.config.FromEmail, es.config.FromName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s %s", actorName, action))

	body := fmt.Sprintf(`
		<html>
		<body style="font-family: Arial, sans-serif;">
			<h2>Hi %s,</h2>
			<p><strong>%s</strong> %s.</p>
			<p>Open the app to respond.</p>
			<br>
			<p>The %s Team</p>
		</body>
		</html>
	`, toName, actorName, action, es.config.FromName)

	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
