// internal/service/email/service.go
package email

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// EmailSender handles outgoing emails via SMTP.
type EmailSender struct {
	dialer      *gomail.Dialer
	fromAddress string
	fromName    string
}

// NewEmailSender creates a new SMTP email sender. Port 465 dials implicit
// TLS; other ports upgrade with STARTTLS when the server offers it.
func NewEmailSender(host string, port int, user, pass, fromAddress, fromName string) *EmailSender {
	dialer := gomail.NewDialer(host, port, user, pass)
	dialer.SSL = port == 465

	return &EmailSender{
		dialer:      dialer,
		fromAddress: fromAddress,
		fromName:    fromName,
	}
}

// Send sends an email with a subject and body (HTML supported).
func (e *EmailSender) Send(to, subject, bodyHTML string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", e.fromAddress, e.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", buildHTMLTemplate(e.fromName, bodyHTML))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail failed: %w", err)
	}
	return nil
}

// buildHTMLTemplate wraps a given body into the branded receipt layout.
func buildHTMLTemplate(brand, content string) string {
	header := `
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8" />
		<title>` + brand + `</title>
		<style>
			body { font-family: Arial, sans-serif; background-color: #f6f8fa; padding: 30px; }
			.container { max-width: 600px; margin: auto; background: #fff; border-radius: 10px; overflow: hidden; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
			.header { background: #1f7a4d; color: white; text-align: center; padding: 20px; font-size: 22px; font-weight: bold; }
			.footer { background: #f1f1f1; color: #555; text-align: center; padding: 15px; font-size: 13px; }
			.body { padding: 25px; color: #333; line-height: 1.6; }
			table.receipt td { padding: 4px 12px 4px 0; }
		</style>
	</head>
	<body>
	<div class="container">
		<div class="header">` + brand + `</div>
		<div class="body">
	`

	footer := `
		</div>
		<div class="footer">
			<p>Keep this email as proof of payment.</p>
		</div>
	</div>
	</body>
	</html>
	`

	return header + strings.TrimSpace(content) + footer
}
