package admin

import (
	"aldoge_server/api/middleware"
	"aldoge_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AdminRoutesManager struct {
	logger         *gecho.Logger
	mw             *middleware.Middleware
	catalogService *services.CatalogService
}

func NewAdminRoutesManager(logger *gecho.Logger, mw *middleware.Middleware, catalogService *services.CatalogService) *AdminRoutesManager {
	return &AdminRoutesManager{
		logger:         logger,
		mw:             mw,
		catalogService: catalogService,
	}
}

func (arm *AdminRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(arm.mw.AdminAuthMiddleware)
		r.Put("/products/{id}", arm.UpdateProduct)
	})
}
