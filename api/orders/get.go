package orders

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (orm *OrderRoutesManager) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderId, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handling.RespondServiceError(lib.ErrOrderNotFound, orm.logger, w)
		return
	}

	order, err := orm.ledgerService.GetOrder(r.Context(), orderId)
	if err != nil {
		handling.RespondServiceError(err, orm.logger, w)
		return
	}

	lines, err := orm.ledgerService.GetOrderLines(r.Context(), orderId)
	if err != nil {
		handling.RespondServiceError(err, orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"order":          order,
			"lines":          lines,
			"residual_cents": order.ResidualCents(),
		}),
		gecho.Send(),
	)
}

func (orm *OrderRoutesManager) GetMenu(w http.ResponseWriter, r *http.Request) {
	products, err := orm.catalogService.ListActive(r.Context())
	if err != nil {
		handling.RespondServiceError(err, orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(products),
		gecho.Send(),
	)
}
