package serverutils

import (
	"errors"

	"dbquery-be/pkg/copilot/qerr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps pipeline errors onto HTTP statuses.
// Recoverable prompt errors (ambiguous scope, no match, unsupported
// operation) come back 422 with the kind so the client can guide the user;
// transient backend failures are 503; consistency violations are 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		kind := qerr.KindOf(err)

		switch kind {
		case qerr.KindAmbiguousScope, qerr.KindNoMatch, qerr.KindUnsupportedOperation:
			code = fiber.StatusUnprocessableEntity
		case qerr.KindBackendUnavailable:
			code = fiber.StatusServiceUnavailable
		case qerr.KindInternalConsistency:
			code = fiber.StatusInternalServerError
		default:
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
		}

		body := ErrorResponse(code, err.Error())
		body.Kind = kind
		return ctx.Status(code).JSON(body)
	}
}
