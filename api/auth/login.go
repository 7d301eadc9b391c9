package auth

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
)

func (arm *AuthRoutesManager) Login(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.AuthRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.auth.invalidRequestBody"),
			gecho.WithData(err),
			gecho.Send(),
		)
		return
	}

	resp, err := arm.authService.Login(r.Context(), body)
	if err != nil {
		handling.RespondServiceError(err, arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.auth.loggedIn"),
		gecho.WithData(resp),
		gecho.Send(),
	)
}
