// Package sender отправляет письма по событиям подписок из очереди.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/lib/smtp"
	"github.com/magabrotheeeer/content-paywall/internal/models"
)

// SenderService формирует и отправляет уведомления.
type SenderService struct {
	mailer      smtp.Mailer
	productName string
	log         *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(mailer smtp.Mailer, productName string, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:      mailer,
		productName: productName,
		log:         log,
	}
}

// HandleMessage обрабатывает сообщение из очереди. Некорректные сообщения и
// события без адреса отбрасываются, ошибка SMTP возвращается для повторной доставки.
func (s *SenderService) HandleMessage(ctx context.Context, routingKey string, body []byte) error {
	const op = "sender.HandleMessage"
	log := s.log.With(slog.String("op", op), slog.String("routing_key", routingKey))

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal message body, dropping", sl.Err(err))
		return nil
	}
	if event.Email == "" {
		log.Warn("event without recipient, dropping", slog.Int64("subscription_id", event.SubscriptionID))
		return nil
	}

	var subject, text string
	switch routingKey {
	case rabbitmq.RoutingKeyActivated:
		subject, text = s.activatedEmail(event)
	case rabbitmq.RoutingKeyExpired:
		subject, text = s.expiredEmail(event)
	default:
		log.Warn("unknown routing key, dropping")
		return nil
	}

	if err := s.mailer.Send(ctx, event.Email, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("email sent", slog.Int64("subscription_id", event.SubscriptionID))
	return nil
}

func (s *SenderService) activatedEmail(e models.SubscriptionEvent) (string, string) {
	plan := e.PlanType
	if p, ok := models.LookupPlan(e.PlanType); ok {
		plan = p.Label
	}
	until := ""
	if e.ExpiresAt != nil {
		until = fmt.Sprintf(" até %s", e.ExpiresAt.Format("02/01/2006"))
	}
	subject := fmt.Sprintf("Assinatura %s ativada", s.productName)
	text := fmt.Sprintf("Olá, %s!\n\nSeu pagamento foi confirmado e o plano %s está ativo%s.\n\nBom proveito!",
		greetingName(e), plan, until)
	return subject, text
}

func (s *SenderService) expiredEmail(e models.SubscriptionEvent) (string, string) {
	subject := fmt.Sprintf("Sua assinatura %s expirou", s.productName)
	text := fmt.Sprintf("Olá, %s!\n\nSua assinatura expirou e o conteúdo exclusivo não está mais disponível.\n\n"+
		"Para renovar, gere um novo pagamento Pix na sua conta.", greetingName(e))
	return subject, text
}

func greetingName(e models.SubscriptionEvent) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Email
}
