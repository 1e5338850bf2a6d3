package email

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sentriom/sentriom-api/internal/logging"
)

// Result is the structured outcome of a delivery attempt. Send never
// panics and never returns a Go error; transport failures are captured
// here so callers decide policy (strict vs permissive).
type Result struct {
	Success bool
	ID      string
	Err     error
}

// OTPContext distinguishes the login and signup email copy.
type OTPContext string

const (
	OTPContextLogin  OTPContext = "login"
	OTPContextSignup OTPContext = "signup"
)

// Service delivers transactional email over SMTP. When the transport is
// unconfigured (no host or no user) every send short-circuits to a logged
// no-op success so the rest of the system stays exercisable without real
// delivery.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail string) *Service {
	if fromEmail == "" {
		fromEmail = smtpUser
	}
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
	}
}

// IsConfigured reports whether a real transport is available.
func (s *Service) IsConfigured() bool {
	return s.smtpHost != "" && s.smtpUser != ""
}

// SendOTP renders and delivers the one-time code email.
func (s *Service) SendOTP(ctx context.Context, toEmail, firstName, code string, otpCtx OTPContext) Result {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Your Sentriom login code"
	if otpCtx == OTPContextSignup {
		subject = "Your Sentriom verification code"
	}

	body, err := renderOTPTemplate(firstName, code)
	if err != nil {
		logger.Error("failed to render otp email template", "error", err)
		return Result{Success: false, Err: fmt.Errorf("render template: %w", err)}
	}

	return s.Send(ctx, toEmail, subject, body)
}

// Send delivers an HTML message and reports the outcome as a Result.
func (s *Service) Send(ctx context.Context, to, subject, body string) Result {
	logger := logging.GetLoggerFromContext(ctx)

	if !s.IsConfigured() {
		logger.Info("email transport not configured, skipping delivery",
			"to", to,
			"subject", subject,
		)
		return Result{Success: true}
	}

	msgID := newMessageID()

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Message-ID: <%s@sentriom>\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, msgID, body,
	))

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)

	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		logger.Error("failed to send email", "to", to, "error", err)
		return Result{Success: false, Err: fmt.Errorf("send email: %w", err)}
	}

	logger.Info("email sent", "to", to, "message_id", msgID)
	return Result{Success: true, ID: msgID}
}

func newMessageID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:#f5f5f5;padding:24px;">
    <div style="max-width:420px;margin:0 auto;background:#fff;border-radius:12px;padding:32px;box-shadow:0 2px 8px rgba(0,0,0,0.06);">
        <h1 style="margin:0 0 8px;font-size:20px;color:#111;">Sentriom</h1>
        <p style="margin:0 0 24px;font-size:14px;color:#666;">{{.Greeting}}</p>
        <p style="margin:0 0 16px;font-size:15px;color:#333;">
            Your verification code is:
        </p>
        <p style="margin:0 0 24px;font-size:28px;font-weight:700;letter-spacing:6px;color:#111;font-family:monospace;">
            {{.Code}}
        </p>
        <p style="margin:0;font-size:13px;color:#888;">
            This code expires in 10 minutes. If you didn't request this, you can ignore this email.
        </p>
        <hr style="margin:24px 0 0;border:none;border-top:1px solid #eee;">
        <p style="margin:12px 0 0;font-size:12px;color:#999;">
            Sentriom &ndash; Smart Crypto Savings
        </p>
    </div>
</body>
</html>
`))

func renderOTPTemplate(firstName, code string) (string, error) {
	greeting := "Hi,"
	if firstName != "" {
		greeting = fmt.Sprintf("Hi %s,", firstName)
	}

	var buf bytes.Buffer
	data := struct {
		Greeting string
		Code     string
	}{
		Greeting: greeting,
		Code:     code,
	}

	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
