package http

import "github.com/labstack/echo/v4"

// Handlers groups every HTTP handler of the checkout API.
type Handlers struct {
	Checkout      *CheckoutHandler
	Transaction   *TransactionHandler
	PaymentMethod *PaymentMethodHandler
	Notification  *NotificationHandler
}

// RegisterRoutes mounts the authenticated API on g.
func RegisterRoutes(g *echo.Group, h Handlers) {
	g.POST("/checkout/quote", h.Checkout.Quote)

	transactions := g.Group("/transactions")
	transactions.POST("", h.Checkout.CreateTransaction)
	transactions.GET("", h.Transaction.ListTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.POST("/:id/process", h.Transaction.ProcessTransaction)
	transactions.POST("/:id/retry", h.Transaction.RetryTransaction)
	transactions.POST("/:id/refund", h.Transaction.RefundTransaction)

	methods := g.Group("/payment-methods")
	methods.GET("", h.PaymentMethod.ListPaymentMethods)
	methods.POST("", h.PaymentMethod.RegisterPaymentMethod)
	methods.PUT("/:id/default", h.PaymentMethod.SetDefaultPaymentMethod)
	methods.DELETE("/:id", h.PaymentMethod.DeletePaymentMethod)

	notifications := g.Group("/notifications")
	notifications.GET("", h.Notification.ListNotifications)
	notifications.GET("/stream", h.Notification.StreamNotifications)
	notifications.PUT("/:id/read", h.Notification.MarkNotificationRead)
}
