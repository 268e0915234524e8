// Package push, bildirim fan-out'unun harici (best-effort) teslimat kanalıdır.
//
// Sender interface'i ile teslimat detayları soyutlanır: service katmanı
// concrete Resend implementasyonuna değil interface'e bağımlıdır. WebSocket
// yayını ve DB kaydı asıl teslimat yollarıdır; bu kanal opsiyoneldir —
// hata durumunda yalnızca log'lanır, domain operasyonu başarısız olmaz.
package push

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v3"
)

// Sender, harici bildirim teslimatı için interface.
type Sender interface {
	// Send, alıcıya tek bir bildirim iletir. Best-effort: caller hatayı
	// log'lar ama asla domain operasyonunu geri almaz.
	Send(ctx context.Context, toEmail, subject, body string) error
}

// resendSender, Resend API ile email gönderen Sender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: noreply@yolda.app)
}

// NewResendSender, Resend API client'ı ile yeni bir Sender oluşturur.
// apiKey: Resend dashboard'dan alınan key (re_xxxxxxxx formatında).
func NewResendSender(apiKey, fromEmail string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

// Send, bildirim email'i gönderir.
// Gövde düz metindir — mobil client zengin gösterimi kendi yapar,
// email yalnızca yedek kanal.
func (s *resendSender) Send(ctx context.Context, toEmail, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("yolda <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Text:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	return nil
}

// noopSender, RESEND_API_KEY tanımlı değilken kullanılan implementasyon.
// Teslimatı debug seviyesinde log'lar, hata dönmez.
type noopSender struct{}

// NewNoopSender, harici teslimatı devre dışı bırakan Sender döner.
func NewNoopSender() Sender {
	return noopSender{}
}

func (noopSender) Send(_ context.Context, toEmail, subject, _ string) error {
	log.Printf("[push] external delivery disabled, skipping %q to %s", subject, toEmail)
	return nil
}
