package checkout

import (
	"aldoge_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type CheckoutRoutesManager struct {
	logger          *gecho.Logger
	checkoutService *services.CheckoutService
}

func NewCheckoutRoutesManager(logger *gecho.Logger, checkoutService *services.CheckoutService) *CheckoutRoutesManager {
	return &CheckoutRoutesManager{
		logger:          logger,
		checkoutService: checkoutService,
	}
}

func (crm *CheckoutRoutesManager) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", crm.CreateCheckout)
}
