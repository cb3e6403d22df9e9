package errors

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Post service specific errors
var (
	ErrPostNotFound       = errors.New("post not found")
	ErrMalformedReference = errors.New("malformed post reference")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error codes
const (
	CodeNotFound           = "NOT_FOUND"
	CodeMalformedReference = "MALFORMED_REFERENCE"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HandleServiceError handles service errors and returns appropriate HTTP responses
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrPostNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Code:    CodeNotFound,
			Message: "Post not found",
			Details: err.Error(),
		})
	case errors.Is(err, ErrMalformedReference):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeMalformedReference,
			Message: "Post reference cannot be decoded",
			Details: err.Error(),
		})
	case errors.Is(err, ErrInvalidRequest):
		return HandleInvalidRequestError(c, err.Error())
	case errors.Is(err, ErrStorageUnavailable):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Code:    CodeStorageUnavailable,
			Message: "Storage is unavailable",
			Details: err.Error(),
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    CodeInternalError,
			Message: "An unexpected error occurred",
			Details: err.Error(),
		})
	}
}

// HandleInvalidRequestError handles invalid request errors with 400 Bad Request
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeInvalidRequest,
		Message: message,
		Details: message,
	})
}
