package orders

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
)

func (orm *OrderRoutesManager) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.OrderRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.order.invalidRequestBody"),
			gecho.WithData(err),
			gecho.Send(),
		)
		return
	}

	order, err := orm.ledgerService.CreateOrder(r.Context(), body)
	if err != nil {
		handling.RespondServiceError(err, orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.order.created"),
		gecho.WithData(map[string]any{
			"order_id":     order.Id,
			"order_number": order.OrderNumber,
			"table_id":     order.TableId,
			"total_cents":  order.TotalCents,
			"status":       order.Status,
		}),
		gecho.Send(),
	)
}
