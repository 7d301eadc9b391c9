package checkout

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
)

// CreateCheckout authorizes a payment session for an order. The response URL
// is only handed out after the session id is durably recorded, so a webhook
// for it can always be matched back.
func (crm *CheckoutRoutesManager) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.CheckoutRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.checkout.invalidRequestBody"),
			gecho.WithData(err),
			gecho.Send(),
		)
		return
	}

	if body.Mode == "split" && body.SplitPersons == 0 {
		gecho.BadRequest(w,
			gecho.WithMessage("error.checkout.splitPersonsRequired"),
			gecho.Send(),
		)
		return
	}

	resp, err := crm.checkoutService.CreateCheckout(r.Context(), body)
	if err != nil {
		handling.RespondServiceError(err, crm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.checkout.created"),
		gecho.WithData(resp),
		gecho.Send(),
	)
}
