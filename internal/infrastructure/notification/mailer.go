package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/wekeepgrowing/agrimarket/internal/config"
	"github.com/wekeepgrowing/agrimarket/internal/domain/notification"
)

// mailSender gomail.Dialer 중 메일러가 사용하는 부분
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer SMTP로 알림 메일을 보냅니다.
// 수신자 주소를 찾을 수 없는 사용자는 건너뜁니다.
type Mailer struct {
	sender    mailSender
	from      string
	recipient notification.RecipientResolver
	logger    *zap.Logger
}

// NewMailer SMTP 설정으로 메일러 생성
func NewMailer(cfg config.SMTPConfig, recipient notification.RecipientResolver, logger *zap.Logger) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newMailer(dialer, cfg.From, recipient, logger)
}

func newMailer(sender mailSender, from string, recipient notification.RecipientResolver, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, from: from, recipient: recipient, logger: logger}
}

// Send 메일 전송
func (m *Mailer) Send(ctx context.Context, userID, subject, body string) error {
	to, ok, err := m.recipient.ResolveEmail(ctx, userID)
	if err != nil {
		return fmt.Errorf("수신자 조회 실패: %w", err)
	}
	if !ok {
		m.logger.Debug("메일 수신자 없음, 건너뜀", zap.String("user_id", userID))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, "Agrimarket"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.AddAlternative("text/html", renderHTML(subject, body))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("메일 전송 실패: %w", err)
	}
	return nil
}

func renderHTML(subject, body string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="font-family: sans-serif; color: #2f3e2f;">`)
	b.WriteString(`<h2 style="color: #3a7d44;">`)
	b.WriteString(html.EscapeString(subject))
	b.WriteString(`</h2>`)
	for _, line := range strings.Split(body, "\n") {
		b.WriteString(`<p>`)
		b.WriteString(html.EscapeString(line))
		b.WriteString(`</p>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// StaticRecipients 설정에 등록된 사용자-메일 주소 매핑
type StaticRecipients map[string]string

// ResolveEmail 사용자 메일 주소 조회
func (r StaticRecipients) ResolveEmail(_ context.Context, userID string) (string, bool, error) {
	email, ok := r[userID]
	return email, ok && email != "", nil
}
