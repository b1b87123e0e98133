package api

import (
	"errors"

	"github.com/example/task-tracker/domain/apperr"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const codeMethodNotAllowed = "METHOD_NOT_ALLOWED"

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// newErrorHandler renders every error returned by a handler or middleware
// as the error envelope. Unexpected failures are logged and hidden.
func newErrorHandler(logger types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := requestIDOf(c)
		status, body := classify(err)

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("Unhandled error",
				"request_id", requestID,
				"method", c.Method(),
				"path", c.Path(),
				"error", err)
		default:
			logger.Warn("Application error",
				"request_id", requestID,
				"code", body.Code,
				"message", body.Message,
				"status", status,
				"path", c.Path())
		}

		if status == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		return c.Status(status).JSON(ErrorResponse{Error: body, RequestID: requestID})
	}
}

func classify(err error) (int, ErrorBody) {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Code.HTTPStatus(), ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return fe.Code, ErrorBody{Code: string(apperr.CodeNotFound), Message: fe.Message}
		case fiber.StatusMethodNotAllowed:
			return fe.Code, ErrorBody{Code: codeMethodNotAllowed, Message: fe.Message}
		case fiber.StatusUnprocessableEntity, fiber.StatusBadRequest:
			return fiber.StatusUnprocessableEntity, ErrorBody{
				Code:    string(apperr.CodeValidation),
				Message: "Request validation failed",
			}
		case fiber.StatusRequestEntityTooLarge:
			return fe.Code, ErrorBody{Code: "PAYLOAD_TOO_LARGE", Message: fe.Message}
		}
		if fe.Code < fiber.StatusInternalServerError {
			return fe.Code, ErrorBody{Code: "HTTP_ERROR", Message: fe.Message}
		}
	}

	internal := apperr.Internal()
	return fiber.StatusInternalServerError, ErrorBody{Code: string(internal.Code), Message: internal.Message}
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
