package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	domainnotification "github.com/wekeepgrowing/agrimarket/internal/domain/notification"
)

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	args := m.Called(ctx, userID, id, at)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestDispatcher_FansOutAndJoinsErrors(t *testing.T) {
	var calls []string
	ok := domainnotification.NotifierFunc(func(_ context.Context, userID, subject, _ string) error {
		calls = append(calls, "ok:"+userID+":"+subject)
		return nil
	})
	broken := domainnotification.NotifierFunc(func(context.Context, string, string, string) error {
		calls = append(calls, "broken")
		return errors.New("redis down")
	})

	d := NewDispatcher(zap.NewNop(), ok, nil, broken, ok)
	assert.Equal(t, 3, d.Channels())

	err := d.Send(context.Background(), "user-1", "Payment failed", "card declined")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, []string{"ok:user-1:Payment failed", "broken", "ok:user-1:Payment failed"}, calls)

	assert.NoError(t, NewDispatcher(zap.NewNop()).Send(context.Background(), "u", "s", "b"))
}

func TestInboxNotifier(t *testing.T) {
	repo := new(mockNotificationRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == "user-1" && n.Subject == "Payment received" && n.ID != "" && !n.IsRead
	})).Return(nil).Once()

	n := NewInboxNotifier(repo)
	require.NoError(t, n.Send(context.Background(), "user-1", "Payment received", "thanks"))
	repo.AssertExpectations(t)

	assert.Error(t, n.Send(context.Background(), "", "subject", "body"))
	assert.Error(t, n.Send(context.Background(), "user-1", "", "body"))
}

func TestRedisPublisher(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, "notifications:user-1", mock.MatchedBy(func(msg interface{}) bool {
		raw, err := json.Marshal(msg)
		if err != nil {
			return false
		}
		var ev Event
		return json.Unmarshal(raw, &ev) == nil && ev.UserID == "user-1" && ev.Subject == "Refund issued"
	})).Return(nil).Once()

	p := NewRedisPublisher(pub, "")
	require.NoError(t, p.Send(context.Background(), "user-1", "Refund issued", "done"))
	pub.AssertExpectations(t)

	failing := new(mockPublisher)
	failing.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))
	assert.Error(t, NewRedisPublisher(failing, "events").Send(context.Background(), "user-1", "s", "b"))
}

func TestMailer(t *testing.T) {
	recipients := StaticRecipients{"user-1": "jane@example.com"}

	t.Run("sends to resolved address", func(t *testing.T) {
		sender := &fakeSender{}
		m := newMailer(sender, "checkout@agrimarket.test", recipients, zap.NewNop())
		require.NoError(t, m.Send(context.Background(), "user-1", "Payment received", "We received <22.23 USD>"))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, []string{"jane@example.com"}, sender.sent[0].GetHeader("To"))
		assert.Equal(t, []string{"Payment received"}, sender.sent[0].GetHeader("Subject"))
	})

	t.Run("skips unknown user", func(t *testing.T) {
		sender := &fakeSender{}
		m := newMailer(sender, "checkout@agrimarket.test", recipients, zap.NewNop())
		require.NoError(t, m.Send(context.Background(), "user-2", "s", "b"))
		assert.Empty(t, sender.sent)
	})

	t.Run("smtp failure", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("connection refused")}
		m := newMailer(sender, "checkout@agrimarket.test", recipients, zap.NewNop())
		assert.Error(t, m.Send(context.Background(), "user-1", "s", "b"))
	})
}

func TestRenderHTML_Escapes(t *testing.T) {
	out := renderHTML("<b>", "a & b\nline two")
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Contains(t, out, "a &amp; b")
	assert.Contains(t, out, "<p>line two</p>")
}
