package webhooks

import (
	"aldoge_server/services"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type WebhookRoutesManager struct {
	logger           *gecho.Logger
	cfg              *structs.Config
	reconcileService *services.ReconcileService
}

func NewWebhookRoutesManager(logger *gecho.Logger, cfg *structs.Config, reconcileService *services.ReconcileService) *WebhookRoutesManager {
	return &WebhookRoutesManager{
		logger:           logger,
		cfg:              cfg,
		reconcileService: reconcileService,
	}
}

func (wrm *WebhookRoutesManager) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/stripe", wrm.HandleStripeWebhook)
}
