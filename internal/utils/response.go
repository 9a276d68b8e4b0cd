package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/types"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends the standard error envelope
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// ErrorFrom renders any error as the error envelope. Classified errors keep their status and
// type, Fiber errors keep their code and everything else is a 500.
func ErrorFrom(c *fiber.Ctx, err error) error {
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return ErrorResponse(c, ce.Message, ce.Code, ce.Type)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		errorType := "unknown"
		switch fe.Code {
		case fiber.StatusNotFound:
			errorType = "notfound"
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
			errorType = "validation"
		case fiber.StatusTooManyRequests:
			errorType = "ratelimit"
		}
		return ErrorResponse(c, fe.Message, fe.Code, errorType)
	}

	return ErrorResponse(c, err.Error(), types.StatusCode(err), types.TypeOf(err))
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "notfound")
}

// MutationSuccessResponse acknowledges a mutation that has no body of its own
func MutationSuccessResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(SuccessResponseStruct{
		Message:   message,
		Ok:        true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
}
