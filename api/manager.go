package api

import (
	"aldoge_server/api/admin"
	"aldoge_server/api/auth"
	"aldoge_server/api/checkout"
	"aldoge_server/api/health"
	"aldoge_server/api/middleware"
	"aldoge_server/api/orders"
	"aldoge_server/api/sessions"
	"aldoge_server/api/webhooks"
	"aldoge_server/services"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type routerManager struct {
	orderRoutes    *orders.OrderRoutesManager
	checkoutRoutes *checkout.CheckoutRoutesManager
	sessionRoutes  *sessions.SessionRoutesManager
	webhookRoutes  *webhooks.WebhookRoutesManager
	adminRoutes    *admin.AdminRoutesManager
	authRoutes     *auth.AuthRoutesManager
	healthRoutes   *health.HealthRoutesManager
}

func NewRouterManager(logger *gecho.Logger, cfg *structs.Config, mw *middleware.Middleware, sm *services.ServiceManager) *routerManager {
	return &routerManager{
		orderRoutes:    orders.NewOrderRoutesManager(logger, sm.LedgerService, sm.CatalogService),
		checkoutRoutes: checkout.NewCheckoutRoutesManager(logger, sm.CheckoutService),
		sessionRoutes:  sessions.NewSessionRoutesManager(logger, mw, sm.LedgerService),
		webhookRoutes:  webhooks.NewWebhookRoutesManager(logger, cfg, sm.ReconcileService),
		adminRoutes:    admin.NewAdminRoutesManager(logger, mw, sm.CatalogService),
		authRoutes:     auth.NewAuthRoutesManager(logger, sm.AuthService),
		healthRoutes:   health.NewHealthRoutesManager(sm.HealthService),
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	rm.orderRoutes.RegisterRoutes(r)
	rm.checkoutRoutes.RegisterRoutes(r)
	rm.sessionRoutes.RegisterRoutes(r)
	rm.webhookRoutes.RegisterRoutes(r)
	rm.adminRoutes.RegisterRoutes(r)
	rm.authRoutes.RegisterRoutes(r)
	rm.healthRoutes.RegisterRoutes(r)
}
