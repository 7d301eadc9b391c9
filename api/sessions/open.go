package sessions

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

func (srm *SessionRoutesManager) OpenSession(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.SessionOpenRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.session.invalidRequestBody"),
			gecho.WithData(err),
			gecho.Send(),
		)
		return
	}

	order, err := srm.ledgerService.OpenSession(r.Context(), body.TableNumber)
	if err != nil {
		handling.RespondServiceError(err, srm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.session.opened"),
		gecho.WithData(map[string]any{
			"order_id":     order.Id,
			"order_number": order.OrderNumber,
			"table_id":     order.TableId,
		}),
		gecho.Send(),
	)
}

// ReopenTable closes the table's current sessions and starts a fresh one.
// Staff only; used when a table was closed by mistake or a new party sits
// down at an already-closed table.
func (srm *SessionRoutesManager) ReopenTable(w http.ResponseWriter, r *http.Request) {
	tableId := chi.URLParam(r, "table")
	if !lib.ValidTableNumber(tableId) {
		handling.RespondServiceError(lib.ErrInvalidTableNumber, srm.logger, w)
		return
	}

	order, err := srm.ledgerService.ReopenTable(r.Context(), tableId)
	if err != nil {
		handling.RespondServiceError(err, srm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.session.reopened"),
		gecho.WithData(map[string]any{
			"order_id":     order.Id,
			"order_number": order.OrderNumber,
			"table_id":     order.TableId,
		}),
		gecho.Send(),
	)
}
