package errors

var (
	ErrInvalidPaymentRequest = &DomainError{
		Code:    "INVALID_PAYMENT_REQUEST",
		Message: "invalid payment request",
	}
	ErrCompensationFailed = &DomainError{
		Code:    "COMPENSATION_FAILED",
		Message: "failed to reverse a committed payment step",
	}
	ErrRetriesExhausted = &DomainError{
		Code:    "RETRIES_EXHAUSTED",
		Message: "retry budget exhausted",
	}
)
