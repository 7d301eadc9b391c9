package admin

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

func (arm *AdminRoutesManager) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productId := chi.URLParam(r, "id")
	if productId == "" {
		gecho.BadRequest(w,
			gecho.WithMessage("error.product.missingId"),
			gecho.Send(),
		)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.ProductUpdateRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.product.invalidRequestBody"),
			gecho.WithData(err),
			gecho.Send(),
		)
		return
	}

	product, err := arm.catalogService.UpdateProduct(r.Context(), productId, body)
	if err != nil {
		handling.RespondServiceError(err, arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.product.updated"),
		gecho.WithData(product),
		gecho.Send(),
	)
}
