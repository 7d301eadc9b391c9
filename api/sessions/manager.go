package sessions

import (
	"aldoge_server/api/middleware"
	"aldoge_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type SessionRoutesManager struct {
	logger        *gecho.Logger
	mw            *middleware.Middleware
	ledgerService *services.LedgerService
}

func NewSessionRoutesManager(logger *gecho.Logger, mw *middleware.Middleware, ledgerService *services.LedgerService) *SessionRoutesManager {
	return &SessionRoutesManager{
		logger:        logger,
		mw:            mw,
		ledgerService: ledgerService,
	}
}

// The session surface is the staff dashboard; every route requires a login.
func (srm *SessionRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Use(srm.mw.StaffAuthMiddleware)
		r.Get("/", srm.ListSessions)
		r.Get("/{id}/orders", srm.GetSessionOrders)
		r.Post("/open", srm.OpenSession)
		r.Post("/{table}/reopen", srm.ReopenTable)
	})
}
