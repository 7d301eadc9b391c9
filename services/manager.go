package services

import (
	"aldoge_server/database"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	AuthService      *AuthService
	CacheService     *CacheService
	CatalogService   *CatalogService
	CheckoutService  *CheckoutService
	HealthService    *HealthService
	LedgerService    *LedgerService
	NotifyService    *NotifyService
	ReconcileService *ReconcileService
	StripeService    *StripeService
}

func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *ServiceManager {
	authService := NewAuthService(logger, cfg, db)
	cacheService := NewCacheService(logger, cfg)
	catalogService := NewCatalogService(logger, cfg, db, cacheService)
	healthService := NewHealthService(logger, db, cacheService)
	ledgerService := NewLedgerService(logger, cfg, db, catalogService)
	notifyService := NewNotifyService(logger, cfg)
	stripeService := NewStripeService(logger, cfg)
	checkoutService := NewCheckoutService(logger, cfg, ledgerService, stripeService)
	reconcileService := NewReconcileService(logger, cfg, ledgerService, notifyService)

	return &ServiceManager{
		AuthService:      authService,
		CacheService:     cacheService,
		CatalogService:   catalogService,
		CheckoutService:  checkoutService,
		HealthService:    healthService,
		LedgerService:    ledgerService,
		NotifyService:    notifyService,
		ReconcileService: reconcileService,
		StripeService:    stripeService,
	}
}
