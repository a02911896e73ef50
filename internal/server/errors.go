package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/limaskap/limaskap/internal/authorization"
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	memberdomain "github.com/limaskap/limaskap/internal/member/domain"
	organizationdomain "github.com/limaskap/limaskap/internal/organization/domain"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/limaskap/limaskap/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return validation.Fail("request", "invalid_request", "invalid request")
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr, ok := validation.As(err); ok {
		msg := "validation error"
		if vErr.Message != "" {
			msg = vErr.Message
		}
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: msg,
			Errors:  toValidationErrors(vErr.Issues),
		}
	}

	if apiErr, ok := frisbii.AsAPIError(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "payment_provider_error",
			Message: "Payment provider error: " + apiErr.Message,
		}
	}
	if errors.Is(err, frisbii.ErrInvalidRequest) {
		return http.StatusBadRequest, errorPayload{
			Type:    "payment_provider_error",
			Message: "Payment provider error: invalid request",
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, viewer.ErrUnauthorized):
		return unauthorized("Unauthorized")
	case errors.Is(err, enrollmentdomain.ErrMemberNotOwned):
		return unauthorized("Member record does not belong to current user")
	case errors.Is(err, paymentdomain.ErrNotOwner):
		return unauthorized("Enrollment does not belong to current user")
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return unauthorized("Invalid webhook signature")
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "Too many requests",
		}
	case errors.Is(err, enrollmentdomain.ErrAlreadyExists):
		return conflict("Enrollment already exists for this program and member")
	case errors.Is(err, enrollmentdomain.ErrInProgress):
		return conflict("Enrollment is already being processed")
	case errors.Is(err, enrollmentdomain.ErrAlreadyCancelled):
		return conflict("Enrollment is already cancelled")
	case errors.Is(err, enrollmentdomain.ErrReceiptUnavailable):
		return conflict("Receipt is only available for paid enrollments")
	case errors.Is(err, organizationdomain.ErrConflict):
		return conflict("Organization slug or subdomain already in use")
	case errors.Is(err, ErrConflict):
		return conflict("conflict")
	case errors.Is(err, enrollmentdomain.ErrPaymentKeyNotFound):
		return badRequest("Payment API key not found")
	case errors.Is(err, paymentdomain.ErrNotConfigured):
		return badRequest("Payment not configured for this organization")
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return badRequest("Invalid webhook payload")
	case errors.Is(err, organizationdomain.ErrWebhookSecretRequired):
		return badRequest("Webhook secret is required when an API key is set")
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return badRequest("invalid page token")
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, enrollmentdomain.ErrInvalidID),
		errors.Is(err, programdomain.ErrInvalidID),
		errors.Is(err, memberdomain.ErrInvalidID),
		errors.Is(err, organizationdomain.ErrInvalidID):
		return badRequest("invalid request")
	case errors.Is(err, enrollmentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrEnrollmentNotFound):
		return notFound("Enrollment not found")
	case errors.Is(err, paymentdomain.ErrNotFound):
		return notFound("Payment not found")
	case errors.Is(err, programdomain.ErrNotFound):
		return notFound("Program not found")
	case errors.Is(err, organizationdomain.ErrNotFound):
		return notFound("Organization not found")
	case errors.Is(err, memberdomain.ErrNotFound):
		return notFound("Member record not found")
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return notFound("not found")
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code logged per request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, err.Error()
}

func unauthorized(msg string) (int, errorPayload) {
	return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: msg}
}

func badRequest(msg string) (int, errorPayload) {
	return http.StatusBadRequest, errorPayload{Type: "bad_request", Message: msg}
}

func conflict(msg string) (int, errorPayload) {
	return http.StatusConflict, errorPayload{Type: "conflict", Message: msg}
}

func notFound(msg string) (int, errorPayload) {
	return http.StatusNotFound, errorPayload{Type: "not_found", Message: msg}
}

func toValidationErrors(issues []validation.Issue) []ValidationError {
	if len(issues) == 0 {
		return nil
	}
	out := make([]ValidationError, 0, len(issues))
	for _, issue := range issues {
		out = append(out, ValidationError{
			Field:   issue.Field,
			Code:    issue.Code,
			Message: issue.Message,
		})
	}
	return out
}
