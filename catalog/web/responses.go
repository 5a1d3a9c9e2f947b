package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// APIResponse is the standard JSON envelope for every endpoint.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError carries a machine-readable code plus optional field details.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewSuccessResponse creates a successful API response
func NewSuccessResponse(data interface{}, message string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse creates an error API response
func NewErrorResponse(code, message string, details map[string]string) *APIResponse {
	return &APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// SendSuccess sends a 200 with the standard envelope.
func SendSuccess(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(NewSuccessResponse(data, message))
}

// SendError sends an error status with the standard envelope.
func SendError(c *fiber.Ctx, status int, code, message string, details map[string]string) error {
	return c.Status(status).JSON(NewErrorResponse(code, message, details))
}

func SendBadRequest(c *fiber.Ctx, message string) error {
	return SendError(c, fiber.StatusBadRequest, "bad_request", message, nil)
}

func SendUnprocessable(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, fiber.StatusUnprocessableEntity, "validation_failed", message, details)
}

func SendNotFound(c *fiber.Ctx, message string) error {
	return SendError(c, fiber.StatusNotFound, "not_found", message, nil)
}

func SendConflict(c *fiber.Ctx, message string) error {
	return SendError(c, fiber.StatusConflict, "conflict", message, nil)
}

func SendInternalError(c *fiber.Ctx, message string) error {
	return SendError(c, fiber.StatusInternalServerError, "internal_error", message, nil)
}
