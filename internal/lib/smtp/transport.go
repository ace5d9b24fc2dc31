package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/content-paywall/internal/config"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
)

// dialTimeout ограничение на установку TCP-соединения.
const dialTimeout = 10 * time.Second

// ErrNoSTARTTLS сервер не поддерживает STARTTLS, а он обязателен.
var ErrNoSTARTTLS = errors.New("smtp server does not support STARTTLS")

// Transport открывает отдельную SMTP-сессию на каждое письмо.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
	now func() time.Time
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log, now: time.Now}
}

// From адрес отправителя: SMTPFrom, а если он пуст, SMTPUser.
func (t *Transport) From() string {
	if t.cfg.SMTPFrom != "" {
		return t.cfg.SMTPFrom
	}
	return t.cfg.SMTPUser
}

// Send доставляет письмо получателю to.
func (t *Transport) Send(ctx context.Context, to, subject, body string) error {
	const op = "smtp.Send"

	from := t.From()
	msg, err := Message{From: from, To: to, Subject: subject, Body: body, Date: t.now()}.Bytes()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	client, err := t.connect(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("%s: MAIL FROM: %w", op, err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: RCPT TO %s: %w", op, to, err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: DATA: %w", op, err)
	}
	if _, err = wc.Write(msg); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write body: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: close body: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: QUIT: %w", op, err)
	}
	return nil
}

// connect подключается к серверу, включает STARTTLS (если он требуется
// настройками) и проходит аутентификацию, когда задан пользователь.
func (t *Transport) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if t.cfg.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			t.log.Error("SMTP server does not support STARTTLS", slog.String("addr", addr))
			_ = client.Close()
			return nil, ErrNoSTARTTLS
		}
		tlsConfig := &tls.Config{
			ServerName: t.cfg.SMTPHost,
			MinVersion: tls.VersionTLS12,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			t.log.Error("failed to start TLS", sl.Err(err))
			_ = client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if t.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
		if err = client.Auth(auth); err != nil {
			t.log.Error("smtp auth failed", sl.Err(err))
			_ = client.Close()
			return nil, fmt.Errorf("smtp auth failed: %w", err)
		}
	}
	return client, nil
}
