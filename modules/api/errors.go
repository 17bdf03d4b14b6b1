package api

import (
	"errors"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Timestamp   time.Time         `json:"timestamp"`
	Path        string            `json:"path"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// statusFor maps an error to an HTTP status and a client facing message.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, domain.ErrMissingClosedStatus):
		return fiber.StatusInternalServerError, "Task status CLOSED is not configured"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, err.Error()
	default:
		return fiber.StatusInternalServerError, "An unexpected error occurred"
	}
}

// errorHandler renders errors returned by route handlers.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code, message := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		m.logger.Error("HTTP error", "code", code, "method", c.Method(), "path", c.Path(), "error", err)
	}

	resp := ErrorResponse{
		Status:    code,
		Error:     utils.StatusMessage(code),
		Message:   message,
		Timestamp: time.Now().UTC(),
		Path:      c.Path(),
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Message = "Validation failed"
		resp.FieldErrors = verr.Fields
	}
	return c.Status(code).JSON(resp)
}
