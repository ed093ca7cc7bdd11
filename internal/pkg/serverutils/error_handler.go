package serverutils

import (
	"errors"

	"lucide-core/pkg/document"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		unsupported *document.UnsupportedTypeError
		tooLarge    *document.FileTooLargeError
		invalid     *document.InvalidFileError
		extraction  *document.ExtractionError
		unavailable *document.UnavailableCodecError
		validation  *ValidationError
		fiberErr    *fiber.Error
	)
	switch {
	case errors.As(err, &unavailable):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &unsupported):
		return fiber.StatusUnsupportedMediaType
	case errors.As(err, &tooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.As(err, &invalid), errors.As(err, &extraction):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware is the fiber ErrorHandler of the app.
func ErrorHandlerMiddleware(ctx *fiber.Ctx, err error) error {
	code := StatusFor(err)
	return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
}
