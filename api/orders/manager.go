package orders

import (
	"aldoge_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type OrderRoutesManager struct {
	logger         *gecho.Logger
	ledgerService  *services.LedgerService
	catalogService *services.CatalogService
}

func NewOrderRoutesManager(logger *gecho.Logger, ledgerService *services.LedgerService, catalogService *services.CatalogService) *OrderRoutesManager {
	return &OrderRoutesManager{
		logger:         logger,
		ledgerService:  ledgerService,
		catalogService: catalogService,
	}
}

func (orm *OrderRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orm.CreateOrder)
		r.Get("/{id}", orm.GetOrder)
	})
	r.Get("/menu", orm.GetMenu)
}
