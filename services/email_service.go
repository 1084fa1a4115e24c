package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/campusmind/console-api/config"
)

// EmailService sends credential mails to newly provisioned students via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService builds the service from the loaded environment
func NewEmailService(env *config.EnviornmentVariable) *EmailService {
	from := env.SMTP_FROM
	if from == "" {
		from = "noreply@campusmind.app"
	}

	return &EmailService{
		host:     env.SMTP_HOST,
		port:     env.SMTP_PORT,
		username: env.SMTP_USER,
		password: env.SMTP_PASS,
		from:     from,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.host != "" && e.username != "" && e.password != ""
}

// SendCredentials mails a student their generated password. Called after the
// import transaction commits; a mail failure never rolls back accounts, it is
// only logged.
func (e *EmailService) SendCredentials(toEmail, studentName, universityName, password string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Skipping credential mail for %s", toEmail)
		return fmt.Errorf("SMTP not configured")
	}

	subject := fmt.Sprintf("Your %s Student Account - CampusMind", universityName)
	body := e.buildCredentialEmailBody(studentName, universityName, toEmail, password)

	return e.sendEmail(toEmail, subject, body)
}

// buildCredentialEmailBody creates the HTML email body for new credentials
func (e *EmailService) buildCredentialEmailBody(studentName, universityName, email, password string) string {
	if studentName == "" {
		studentName = "Student"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Your Student Account - CampusMind</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: #ffffff;
            border-radius: 8px;
            padding: 40px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);
        }
        h2 { color: #1a3c6e; margin-top: 0; }
        .credentials {
            background-color: #f5f5f5;
            border-radius: 4px;
            padding: 15px;
            margin: 20px 0;
            font-family: monospace;
        }
        .warning {
            background-color: #fff3cd;
            border: 1px solid #ffc107;
            border-radius: 4px;
            padding: 12px;
            margin-top: 20px;
            font-size: 13px;
        }
        .footer {
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <h2>Welcome to CampusMind</h2>

        <p>Hello %s,</p>

        <p>Your student account for <strong>%s</strong> has been created. Use these credentials to sign in:</p>

        <div class="credentials">
            Email: %s<br>
            Password: %s
        </div>

        <div class="warning">
            <strong>Important:</strong> Please change this password after your first sign-in.
        </div>

        <div class="footer">
            <p><strong>CampusMind</strong></p>
            <p>If you did not expect this account, contact your university administrator.</p>
        </div>
    </div>
</body>
</html>`, studentName, universityName, email, password)
}

// sendEmail sends an email using SMTP with TLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("CampusMind <%s>", e.from)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"
	headers["X-Mailer"] = "CampusMind Mailer"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         e.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write([]byte(message.String()))
	if err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	log.Printf("Credential email sent successfully to: %s", to)
	return nil
}
