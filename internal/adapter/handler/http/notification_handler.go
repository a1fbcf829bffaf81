package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/notification"
	"github.com/wekeepgrowing/agrimarket/internal/usecase"
	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
	"github.com/wekeepgrowing/agrimarket/pkg/messaging"
)

// Subscriber is the part of the Redis client used for live notifications.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan messaging.Message, error)
}

type NotificationHandler struct {
	service *usecase.NotificationService
	logger  *zap.Logger

	subscriber Subscriber
	channel    string
}

func NewNotificationHandler(service *usecase.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger,
	}
}

// WithStream enables StreamNotifications on the per-user channels
// "<channel>:<userID>".
func (h *NotificationHandler) WithStream(subscriber Subscriber, channel string) *NotificationHandler {
	h.subscriber = subscriber
	h.channel = channel
	return h
}

// ListNotifications returns the inbox, newest first. ?unread=true hides
// entries already read.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	items, err := h.service.List(c.Request().Context(), userID, queryBool(c, "unread"), limit)
	if err != nil {
		apperrors.LogError(h.logger, err, "Failed to list notifications", zap.String("user_id", userID))
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotificationHandler) MarkNotificationRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	if err := h.service.MarkRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StreamNotifications relays published notifications as server-sent events
// until the client disconnects.
func (h *NotificationHandler) StreamNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	if h.subscriber == nil {
		return apperrors.ToHTTPError(apperrors.NewAppError(apperrors.ErrNotImplemented, "live notifications are disabled", nil))
	}

	ctx := c.Request().Context()
	messages, err := h.subscriber.Subscribe(ctx, fmt.Sprintf("%s:%s", h.channel, userID))
	if err != nil {
		err = apperrors.Wrap(err, "failed to subscribe to notifications")
		apperrors.LogError(h.logger, err, "Notification stream unavailable", zap.String("user_id", userID))
		return apperrors.ToHTTPError(err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event notification.Event
			if err := msg.Decode(&event); err != nil {
				h.logger.Warn("Dropping malformed notification event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: notification\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
