package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/agrimarket/internal/domain/notification"
)

// Dispatcher 여러 채널로 알림을 팬아웃합니다.
// 한 채널이 실패해도 나머지 채널은 계속 전송하고, 실패는 모아서 반환합니다.
type Dispatcher struct {
	channels []notification.Notifier
	logger   *zap.Logger
}

// NewDispatcher 디스패처 생성. nil 채널은 무시합니다.
func NewDispatcher(logger *zap.Logger, channels ...notification.Notifier) *Dispatcher {
	active := make([]notification.Notifier, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			active = append(active, ch)
		}
	}
	return &Dispatcher{channels: active, logger: logger}
}

// Send 모든 채널로 알림 전송
func (d *Dispatcher) Send(ctx context.Context, userID, subject, body string) error {
	var errs []error
	for _, ch := range d.channels {
		if err := ch.Send(ctx, userID, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		d.logger.Debug("알림 일부 채널 전송 실패",
			zap.String("user_id", userID),
			zap.Int("failed", len(errs)),
			zap.Int("channels", len(d.channels)))
	}
	return errors.Join(errs...)
}

// Channels 활성 채널 수
func (d *Dispatcher) Channels() int {
	return len(d.channels)
}
