package httpx

import (
	"errors"

	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/gofiber/fiber/v2"
)

// WithError dispatches any error returned by a handler to the right HTTP
// status and wire shape, mirroring net/http/errors.go's switch.
func WithError(c *fiber.Ctx, err error) error {
	var (
		notFound       apperr.EntityNotFoundError
		validation     apperr.ValidationError
		conflict       apperr.EntityConflictError
		unprocessable  apperr.UnprocessableOperationError
		unauthorized   apperr.UnauthorizedError
		forbidden      apperr.ForbiddenError
		unavailable    apperr.RemoteUnavailableError
		internal       apperr.InternalServerError
		validationErrs *ValidationErrors
	)

	switch {
	case errors.As(err, &notFound):
		return NotFound(c, notFound.Code, notFound.Error())
	case errors.As(err, &validationErrs):
		return BadRequest(c, "CB_VALIDATION", "Validation Error", "request failed validation", validationErrs.Fields)
	case errors.As(err, &validation):
		return BadRequest(c, validation.Code, validation.Title, validation.Message, validation.Fields)
	case errors.As(err, &conflict):
		return Conflict(c, conflict.Code, conflict.Error())
	case errors.As(err, &unprocessable):
		return UnprocessableEntity(c, unprocessable.Code, unprocessable.Error())
	case errors.As(err, &unauthorized):
		return Unauthorized(c, unauthorized.Code, unauthorized.Error())
	case errors.As(err, &forbidden):
		return Forbidden(c, forbidden.Code, forbidden.Error())
	case errors.As(err, &unavailable):
		return ServiceUnavailable(c, unavailable.Code, unavailable.Error())
	case errors.As(err, &internal):
		return InternalServerError(c, internal.Code, internal.Error())
	default:
		wrapped := apperr.ValidateInternalError(err, "")
		_ = errors.As(wrapped, &internal)

		return InternalServerError(c, internal.Code, internal.Error())
	}
}
