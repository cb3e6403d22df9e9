// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package errors

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	postsErrors "github.com/qolzam/telar/apps/social/posts/errors"
	usersErrors "github.com/qolzam/telar/apps/social/users/errors"
)

// Engagement specific errors
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidInteractionKind = errors.New("invalid interaction kind")
	ErrInvalidContent         = errors.New("invalid content")
	ErrInteractionNotFound    = errors.New("interaction not found")
	ErrInvalidRequest         = errors.New("invalid request")

	// ErrConflict reports a lost uniqueness race. It is transient: re-read instead of failing.
	ErrConflict = errors.New("interaction write conflict")

	// ErrResyncFailed means the mutation committed but the counters could not be recomputed
	ErrResyncFailed = errors.New("counter resync failed")
)

// Errors shared with the posts and users packages, so errors.Is works on either name
var (
	ErrPostNotFound       = postsErrors.ErrPostNotFound
	ErrMalformedReference = postsErrors.ErrMalformedReference
	ErrStorageUnavailable = postsErrors.ErrStorageUnavailable
	ErrUserNotFound       = usersErrors.ErrUserNotFound
)

// Error codes
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeInvalidInteractionKind = "INVALID_INTERACTION_KIND"
	CodeInvalidContent         = "INVALID_CONTENT"
	CodeNotFound               = "NOT_FOUND"
	CodeMalformedReference     = "MALFORMED_REFERENCE"
	CodeConflict               = "CONFLICT"
	CodeStorageUnavailable     = "STORAGE_UNAVAILABLE"
	CodeResyncFailed           = "RESYNC_FAILED"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInternalError          = "INTERNAL_ERROR"
)

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type errorKind struct {
	target  error
	code    string
	status  int
	message string
}

// Checked in order. ErrResyncFailed comes first because it wraps a storage cause.
var kinds = []errorKind{
	{ErrResyncFailed, CodeResyncFailed, http.StatusServiceUnavailable, "Counters could not be recomputed"},
	{ErrAuthenticationRequired, CodeAuthenticationRequired, http.StatusUnauthorized, "Authentication required"},
	{ErrInvalidInteractionKind, CodeInvalidInteractionKind, http.StatusBadRequest, "Interaction kind must be like or share"},
	{ErrInvalidContent, CodeInvalidContent, http.StatusBadRequest, "Invalid content"},
	{ErrMalformedReference, CodeMalformedReference, http.StatusBadRequest, "Post reference cannot be decoded"},
	{ErrPostNotFound, CodeNotFound, http.StatusNotFound, "Post not found"},
	{ErrUserNotFound, CodeNotFound, http.StatusNotFound, "User not found"},
	{ErrInteractionNotFound, CodeNotFound, http.StatusNotFound, "Interaction not found"},
	{ErrConflict, CodeConflict, http.StatusConflict, "Concurrent write conflict, retry"},
	{ErrStorageUnavailable, CodeStorageUnavailable, http.StatusServiceUnavailable, "Storage is unavailable"},
	{ErrInvalidRequest, CodeInvalidRequest, http.StatusBadRequest, "Invalid request"},
}

func lookup(err error) (errorKind, bool) {
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k, true
		}
	}
	return errorKind{}, false
}

// CodeOf returns the stable code for err, or CodeInternalError for anything unclassified
func CodeOf(err error) string {
	if k, ok := lookup(err); ok {
		return k.code
	}
	return CodeInternalError
}

// StatusOf returns the HTTP status for err
func StatusOf(err error) int {
	if k, ok := lookup(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// HandleServiceError handles service errors and returns appropriate HTTP responses
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	k, ok := lookup(err)
	if !ok {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    CodeInternalError,
			Message: "An unexpected error occurred",
			Details: err.Error(),
		})
	}
	return c.Status(k.status).JSON(ErrorResponse{
		Code:    k.code,
		Message: k.message,
		Details: err.Error(),
	})
}

// HandleInvalidRequestError handles invalid request errors with 400 Bad Request
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeInvalidRequest,
		Message: message,
		Details: message,
	})
}
