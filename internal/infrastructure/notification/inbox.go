package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

// InboxNotifier 알림을 저장소(받은 편지함)에 기록합니다.
type InboxNotifier struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewInboxNotifier 받은 편지함 알림 채널 생성
func NewInboxNotifier(repo repository.NotificationRepository) *InboxNotifier {
	return &InboxNotifier{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Send 알림 저장
func (n *InboxNotifier) Send(ctx context.Context, userID, subject, body string) error {
	if userID == "" {
		return errors.New("사용자 ID는 필수입니다")
	}
	if subject == "" {
		return errors.New("제목은 필수입니다")
	}

	entry := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   subject,
		Body:      body,
		CreatedAt: n.now(),
	}
	if err := n.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("알림 저장 실패: %w", err)
	}
	return nil
}
