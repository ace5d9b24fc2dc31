// Package smtp отправляет текстовые письма через SMTP-сервер.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"
)

// Mailer отправляет текстовое письмо одному получателю.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message текстовое письмо в UTF-8.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	Date    time.Time
}

// Bytes собирает письмо. Тема кодируется по RFC 2047, тело в quoted-printable.
func (m Message) Bytes() ([]byte, error) {
	const op = "smtp.Message.Bytes"

	headers := [][2]string{
		{"From", m.From},
		{"To", m.To},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"Date", m.Date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/plain; charset="UTF-8"`},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}

	var buf bytes.Buffer
	for _, h := range headers {
		if strings.ContainsAny(h[1], "\r\n") {
			return nil, fmt.Errorf("%s: header %s contains a line break", op, h[0])
		}
		fmt.Fprintf(&buf, "%s: %s\r\n", h[0], h[1])
	}
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}
