package errors

// 공통 에러 코드 정의
const (
	// 일반적인 에러 코드
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"

	// 결제 도메인 에러 코드
	ErrPaymentMethod      = "PAYMENT_METHOD_REJECTED"
	ErrGateway            = "GATEWAY_FAILURE"
	ErrStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrRetryExhausted     = "RETRY_EXHAUSTED"
	ErrInvalidState       = "INVALID_STATE"
)
