// utils/email.go
package utils

import (
	"fmt"
	"html"
	"time"

	"storefront/config"
	"storefront/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Mailer delivers one HTML email.
type Mailer interface {
	SendEmail(toEmail, subject, htmlContent string) error
}

// NewMailer picks the relay named by EMAIL_PROVIDER.
func NewMailer(cfg *config.Config, logger *logrus.Logger) (Mailer, error) {
	switch cfg.EmailProvider {
	case "postmark":
		return NewPostmarkMailer(cfg.PostmarkAPIToken, cfg.EmailSender), nil
	case "sendgrid":
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailSender), nil
	case "log":
		return &LogMailer{log: logger}, nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
}

// PostmarkMailer handles sending emails using Postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (pm *PostmarkMailer) SendEmail(toEmail, subject, htmlContent string) error {
	res, err := pm.client.SendEmail(postmark.Email{
		From:     pm.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("failed to send email: postmark error %d: %s", res.ErrorCode, res.Message)
	}
	return nil
}

// SendGridMailer handles sending emails using SendGrid
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Forever", from),
	}
}

func (sm *SendGridMailer) SendEmail(toEmail, subject, htmlContent string) error {
	msg := mail.NewSingleEmail(sm.from, subject, mail.NewEmail("", toEmail), htmlContent, htmlContent)
	res, err := sm.client.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	log *logrus.Logger
}

func (lm *LogMailer) SendEmail(toEmail, subject, _ string) error {
	lm.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("Email suppressed (EMAIL_PROVIDER=log)")
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func SendVerificationEmail(m Mailer, publicURL, toEmail, token string) error {
	subject := "Verify Your Email"
	verificationLink := fmt.Sprintf("%s/api/user/verify?token=%s", publicURL, token)
	htmlContent := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a>",
		html.EscapeString(verificationLink),
	)
	return m.SendEmail(toEmail, subject, htmlContent)
}

// OrderUpdateEmail renders the status-change notification for an order.
func OrderUpdateEmail(orderID string, status models.OrderStatus, at time.Time) (subject, htmlContent string) {
	subject = "Your Forever Order has an Update"
	htmlContent = fmt.Sprintf(
		`<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,sans-serif;">`+
			`<h1 style="background-color:#4CAF50;color:#ffffff;padding:20px;text-align:center;margin:0;">Order Update</h1>`+
			`<div style="padding:30px;color:#333333;font-size:16px;line-height:1.6;">`+
			`<p>Your order <strong>%s</strong> has been <strong>%s</strong>.</p>`+
			`<p>Thanks for ordering with us!</p>`+
			`<p style="color:#999;">Latest updated at: <em>%s</em></p>`+
			`</div>`+
			`<p style="text-align:center;color:#888888;font-size:12px;">&copy; %d Forever. All rights reserved.</p>`+
			`</body>`,
		html.EscapeString(orderID),
		html.EscapeString(string(status)),
		at.Format("2006-01-02"),
		at.Year(),
	)
	return subject, htmlContent
}
