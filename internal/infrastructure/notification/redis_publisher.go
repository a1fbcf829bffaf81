package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/wekeepgrowing/agrimarket/pkg/messaging"
)

// Event Redis로 발행되는 알림 페이로드
type Event struct {
	UserID  string    `json:"user_id"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// RedisPublisher 사용자별 Redis 채널로 알림을 발행합니다.
type RedisPublisher struct {
	publisher messaging.Publisher
	channel   string
}

// NewRedisPublisher Redis 알림 발행자 생성
func NewRedisPublisher(publisher messaging.Publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = "notifications"
	}
	return &RedisPublisher{publisher: publisher, channel: channel}
}

// UserChannel 사용자별 채널 이름
func (p *RedisPublisher) UserChannel(userID string) string {
	return fmt.Sprintf("%s:%s", p.channel, userID)
}

// Send 알림 발행
func (p *RedisPublisher) Send(ctx context.Context, userID, subject, body string) error {
	event := Event{
		UserID:  userID,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now().UTC(),
	}
	if err := p.publisher.Publish(ctx, p.UserChannel(userID), event); err != nil {
		return fmt.Errorf("알림 발행 실패: %w", err)
	}
	return nil
}
