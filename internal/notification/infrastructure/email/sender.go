package email

import (
	"context"
	"fmt"
	"net/smtp"
	"os"

	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendWelcomeEmail(ctx context.Context, to string, name string) error
	SendOrderConfirmation(ctx context.Context, to string, orderID, amount int64, currency string) error
	SendPaymentReceipt(ctx context.Context, to string, orderID, amount int64) error
	SendPaymentFailure(ctx context.Context, to string, orderID int64) error
}

type smtpSender struct {
	from     string
	password string
	host     string
	port     string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(logger *zap.Logger) Sender {
	return &smtpSender{
		from:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		logger:   logger,
		tracer:   otel.Tracer("notification/infrastructure/email"),
	}
}

func (s *smtpSender) SendWelcomeEmail(ctx context.Context, to string, name string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendWelcomeEmail")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
	)

	subject := "Subject: Welcome to our store!\n"
	body := fmt.Sprintf(`
		<h1>Welcome, %s! 🚀</h1>
		<p>Your account is ready. Happy shopping!</p>
	`, name)

	return s.send(ctx, to, subject, body)
}

func (s *smtpSender) SendOrderConfirmation(ctx context.Context, to string, orderID, amount int64, currency string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendOrderConfirmation")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.Int64("order_id", orderID),
	)

	subject := "Subject: Your order has been placed.\n"
	body := fmt.Sprintf(`
		<h1>Thanks for your order! 🛒</h1>
		<p>Order #%d was placed successfully.</p>
		<p>Total: %d.%02d %s</p>
	`, orderID, amount/100, amount%100, currency)

	return s.send(ctx, to, subject, body)
}

func (s *smtpSender) SendPaymentReceipt(ctx context.Context, to string, orderID, amount int64) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendPaymentReceipt")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.Int64("order_id", orderID),
	)

	subject := "Subject: Payment received.\n"
	body := fmt.Sprintf(`
		<h1>Payment received ✅</h1>
		<p>We received your payment of %d.%02d for order #%d.</p>
		<p>Your order is confirmed and on its way.</p>
	`, amount/100, amount%100, orderID)

	return s.send(ctx, to, subject, body)
}

func (s *smtpSender) SendPaymentFailure(ctx context.Context, to string, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendPaymentFailure")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.Int64("order_id", orderID),
	)

	subject := "Subject: Payment failed for your order.\n"
	body := fmt.Sprintf(`
		<h1>Payment failed</h1>
		<p>The payment for order #%d did not go through and the order was cancelled.</p>
		<p>You can place the order again anytime.</p>
	`, orderID)

	return s.send(ctx, to, subject, body)
}

func (s *smtpSender) send(ctx context.Context, to, subject, body string) error {
	span := trace.SpanFromContext(ctx)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(subject + mime + body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending email",
		zap.String("to", to),
	)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Error sending email",
			zap.String("to", to),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %w", err)
	}

	mylogger.Info(ctx, s.logger, "Email sent successfully", zap.String("to", to))
	return nil
}
