package sessions

import (
	"net/http"

	"aldoge_server/handling"
	"aldoge_server/lib"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListSessions is the staff-dashboard view: every session with its paid and
// residual amounts.
func (srm *SessionRoutesManager) ListSessions(w http.ResponseWriter, r *http.Request) {
	views, err := srm.ledgerService.GetSessions(r.Context())
	if err != nil {
		handling.RespondServiceError(err, srm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(views),
		gecho.Send(),
	)
}

func (srm *SessionRoutesManager) GetSessionOrders(w http.ResponseWriter, r *http.Request) {
	orderId, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handling.RespondServiceError(lib.ErrOrderNotFound, srm.logger, w)
		return
	}

	order, err := srm.ledgerService.GetOrder(r.Context(), orderId)
	if err != nil {
		handling.RespondServiceError(err, srm.logger, w)
		return
	}

	lines, err := srm.ledgerService.GetOrderLines(r.Context(), orderId)
	if err != nil {
		handling.RespondServiceError(err, srm.logger, w)
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
