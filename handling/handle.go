package handling

import (
	"errors"
	"net/http"

	"aldoge_server/lib"

	"github.com/MonkyMars/gecho"
)

func HandleError(err error, msg string, logger *gecho.Logger, w http.ResponseWriter) error {
	logger.Error("An error occurred", gecho.Field("error", err), gecho.Field("msg", msg), gecho.WithCallerSkip(3))

	return gecho.InternalServerError(w, gecho.Send())
}

// RespondServiceError maps a service error onto the HTTP response taxonomy.
// Input errors are 400, missing entities 404, state conflicts 409, bad
// credentials 401. Anything unmapped is an internal failure.
func RespondServiceError(err error, logger *gecho.Logger, w http.ResponseWriter) error {
	switch {
	case errors.Is(err, lib.ErrUnknownProduct),
		errors.Is(err, lib.ErrInvalidQuantity),
		errors.Is(err, lib.ErrInvalidSplit),
		errors.Is(err, lib.ErrInvalidSplitAmount),
		errors.Is(err, lib.ErrInvalidTableNumber):
		return gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)

	case errors.Is(err, lib.ErrOrderNotFound),
		errors.Is(err, lib.ErrTableNotFound),
		errors.Is(err, lib.ErrNotFound):
		return gecho.NotFound(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)

	case errors.Is(err, lib.ErrOrderNotPayable),
		errors.Is(err, lib.ErrNothingToPay),
		errors.Is(err, lib.ErrSessionAlreadyExists),
		errors.Is(err, lib.ErrSessionAlreadyOpen),
		errors.Is(err, lib.ErrConflict):
		return gecho.Conflict(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)

	case errors.Is(err, lib.ErrInvalidCredentials),
		errors.Is(err, lib.ErrInvalidToken),
		errors.Is(err, lib.ErrExpiredToken):
		return gecho.Unauthorized(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
	}

	return HandleError(err, "unhandled service error", logger, w)
}
