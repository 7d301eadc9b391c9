package services

import (
	"context"
	"fmt"
	"time"

	"aldoge_server/database"
	"aldoge_server/lib"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
)

const catalogCacheKey = "catalog:menu:active"

// CatalogService is the authoritative source of menu prices. The ledger never
// trusts a client-submitted price; every total is derived from here. Reads go
// through a short-TTL Redis cache; price data changes rarely and a brief
// staleness window is acceptable.
type CatalogService struct {
	logger       *gecho.Logger
	cfg          *structs.Config
	db           *database.DB
	cacheService *CacheService
}

func NewCatalogService(logger *gecho.Logger, cfg *structs.Config, db *database.DB, cacheService *CacheService) *CatalogService {
	return &CatalogService{
		logger:       logger,
		cfg:          cfg,
		db:           db,
		cacheService: cacheService,
	}
}

// ListActive returns the active menu, cache-aside with TTL.
func (cs *CatalogService) ListActive(ctx context.Context) ([]tables.Product, error) {
	var products []tables.Product

	hit, err := cs.cacheService.GetJSON(ctx, catalogCacheKey, &products)
	if err != nil {
		cs.logger.Warn("Catalog cache read failed, falling back to database", gecho.Field("error", err))
	}
	if hit {
		return products, nil
	}

	products, err = database.Query[tables.Product](cs.db).
		Where("is_active", true).
		OrderBy("category", database.ASC).
		OrderBy("name", database.ASC).
		All(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	if cacheErr := cs.cacheService.SetJSON(ctx, catalogCacheKey, products, cs.cfg.Cache.CatalogTTL); cacheErr != nil {
		cs.logger.Warn("Failed to cache catalog", gecho.Field("error", cacheErr))
	}

	return products, nil
}

// GetActiveByIds resolves product ids to active catalog entries. Missing or
// inactive ids are simply absent from the result; the caller decides whether
// that is an error.
func (cs *CatalogService) GetActiveByIds(ctx context.Context, ids []string) (map[string]*tables.Product, error) {
	products, err := cs.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	result := make(map[string]*tables.Product, len(ids))
	for i := range products {
		p := &products[i]
		if wanted[p.Id] && p.IsActive {
			result[p.Id] = p
		}
	}

	return result, nil
}

// GetProductById fetches a single product regardless of active status (staff use).
func (cs *CatalogService) GetProductById(ctx context.Context, id string) (*tables.Product, error) {
	product, err := database.Query[tables.Product](cs.db).
		Where("id", id).
		First(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if product == nil {
		return nil, lib.ErrUnknownProduct
	}
	return product, nil
}

// UpdateProduct applies a staff price/availability change and invalidates the
// menu cache so new orders see the new price within one request.
func (cs *CatalogService) UpdateProduct(ctx context.Context, id string, req *structs.ProductUpdateRequest) (*tables.Product, error) {
	if req.PriceCents == nil && req.IsActive == nil {
		return nil, fmt.Errorf("no fields to update")
	}

	query := cs.db.NewUpdate().
		Model((*tables.Product)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)

	if req.PriceCents != nil {
		query = query.Set("price_cents = ?", *req.PriceCents)
	}
	if req.IsActive != nil {
		query = query.Set("is_active = ?", *req.IsActive)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, lib.ErrUnknownProduct
	}

	if cacheErr := cs.cacheService.Delete(ctx, catalogCacheKey); cacheErr != nil {
		cs.logger.Warn("Failed to invalidate catalog cache", gecho.Field("error", cacheErr), gecho.Field("product_id", id))
	}

	cs.logger.Info("Product updated", gecho.Field("product_id", id))

	return cs.GetProductById(ctx, id)
}
