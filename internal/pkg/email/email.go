package email

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
)

// Mailer sends the account mails of the auth flow.
type Mailer interface {
	SendConfirmationEmail(toEmail, toName, token string) error
	SendPasswordResetEmail(toEmail, toName, token string) error
	SendWelcomeEmail(toEmail, toName string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string // public URL of the web app, used in links
}

// SMTPMailer implements Mailer over net/smtp.
type SMTPMailer struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(config SMTPConfig, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		logger: logger,
	}
}

func (s *SMTPMailer) configured() bool {
	return s.config.Username != "" && s.config.Password != ""
}

func (s *SMTPMailer) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", s.config.BaseURL, path, url.QueryEscape(token))
}

// SendConfirmationEmail sends the sign-up confirmation link.
func (s *SMTPMailer) SendConfirmationEmail(toEmail, toName, token string) error {
	confirmURL := s.link("/api/v1/auth/confirm", token)
	if !s.configured() {
		// Development mode: the link is only logged.
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("confirmURL", confirmURL).
			Msg("SMTP credentials not configured - confirmation email not sent")
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome to PARIVARTAN!</h2>
				<p>Hello %s,</p>
				<p>Please confirm your email address to finish creating your account:</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #e8734a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Confirm Email</a>
				</div>
				<p>Or use this code: <strong>%s</strong></p>
				<p>The link expires in 24 hours. If you did not sign up, ignore this email.</p>
				<p>Team PARIVARTAN</p>
			</div>
		</body>
		</html>
	`, toName, confirmURL, token)

	return s.sendHTMLEmail(toEmail, "Confirm your email - PARIVARTAN", body)
}

// SendPasswordResetEmail sends the password reset link.
func (s *SMTPMailer) SendPasswordResetEmail(toEmail, toName, token string) error {
	resetURL := s.link("/reset-password", token)
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("resetURL", resetURL).
			Msg("SMTP credentials not configured - password reset email not sent")
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<p>Hello %s,</p>
				<p>We received a request to reset your PARIVARTAN password.</p>
				<p><a href="%s">Reset password</a></p>
				<p>The link expires in 1 hour. If you did not ask for this, nothing changes.</p>
			</div>
		</body>
		</html>
	`, toName, resetURL)

	return s.sendHTMLEmail(toEmail, "Reset your password - PARIVARTAN", body)
}

// SendWelcomeEmail sends a welcome email to a newly confirmed user
func (s *SMTPMailer) SendWelcomeEmail(toEmail, toName string) error {
	if !s.configured() {
		s.logger.Debug().Str("toEmail", toEmail).Msg("SMTP credentials not configured - welcome email not sent")
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">You're in!</h2>
				<p>Hello %s,</p>
				<p>Your email is confirmed. Sign in to finish your profile and meet the team.</p>
				<p>Team PARIVARTAN</p>
			</div>
		</body>
		</html>
	`, toName)

	return s.sendHTMLEmail(toEmail, "Welcome to PARIVARTAN", body)
}

// sendHTMLEmail sends an HTML email
func (s *SMTPMailer) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	message := fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail) +
		fmt.Sprintf("To: %s\r\n", toEmail) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" + htmlBody

	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, []byte(message)); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

// GenerateToken returns a 64 character hex token from crypto/rand.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
