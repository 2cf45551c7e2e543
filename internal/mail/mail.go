// AngelaMos | 2026
// mail.go

package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"
)

// Sender delivers the transactional emails used by the auth flows.
type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
	SendWelcome(ctx context.Context, to, verificationURL string) error
	SendResetPassword(ctx context.Context, to, resetURL string) error
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

// transport is the delivery step shared by the concrete senders.
type transport interface {
	deliver(ctx context.Context, msg Message) error
}

type Templates struct {
	AppName   string
	OTPExpiry time.Duration
}

var (
	otpTemplate = template.Must(template.New("otp").Parse(
		`<p>Your {{.AppName}} verification code is <strong>{{.Code}}</strong>.</p>` +
			`<p>It expires in {{.Minutes}} minutes.</p>`,
	))
	welcomeTemplate = template.Must(template.New("welcome").Parse(
		`<p>Welcome to {{.AppName}}.</p>` +
			`<p><a href="{{.URL}}">Verify your account</a> to get started.</p>`,
	))
	resetTemplate = template.Must(template.New("reset").Parse(
		`<p>A password reset was requested for your {{.AppName}} account.</p>` +
			`<p><a href="{{.URL}}">Choose a new password</a>.</p>`,
	))
)

func (t Templates) otp(to, code string) (Message, error) {
	body, err := render(otpTemplate, map[string]any{
		"AppName": t.AppName,
		"Code":    code,
		"Minutes": int(t.OTPExpiry.Minutes()),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: t.AppName + " Login Verification Code",
		HTML:    body,
	}, nil
}

func (t Templates) welcome(to, url string) (Message, error) {
	body, err := render(welcomeTemplate, map[string]any{"AppName": t.AppName, "URL": url})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Welcome to " + t.AppName, HTML: body}, nil
}

func (t Templates) reset(to, url string) (Message, error) {
	body, err := render(resetTemplate, map[string]any{"AppName": t.AppName, "URL": url})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: t.AppName + " Password Reset", HTML: body}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// templated adapts a transport to Sender.
type templated struct {
	templates Templates
	transport transport
}

func (s *templated) SendOTP(ctx context.Context, to, code string) error {
	msg, err := s.templates.otp(to, code)
	if err != nil {
		return err
	}
	return s.transport.deliver(ctx, msg)
}

func (s *templated) SendWelcome(ctx context.Context, to, url string) error {
	msg, err := s.templates.welcome(to, url)
	if err != nil {
		return err
	}
	return s.transport.deliver(ctx, msg)
}

func (s *templated) SendResetPassword(ctx context.Context, to, url string) error {
	msg, err := s.templates.reset(to, url)
	if err != nil {
		return err
	}
	return s.transport.deliver(ctx, msg)
}

type logTransport struct {
	logger *slog.Logger
}

func (t logTransport) deliver(_ context.Context, msg Message) error {
	t.logger.Info("email",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.HTML,
	)
	return nil
}

// NewLogSender writes messages to the logger instead of delivering them.
func NewLogSender(logger *slog.Logger, templates Templates) Sender {
	return &templated{templates: templates, transport: logTransport{logger: logger}}
}
