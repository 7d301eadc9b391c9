package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"aldoge_server/database"
	"aldoge_server/lib"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Cart limits, matching what the ordering frontend enforces.
const (
	MaxCartItems    = 30
	MaxItemQuantity = 20
	MinPaymentCents = 1
)

// SettleResult classifies the outcome of applying a payment-confirmation
// event to the ledger.
type SettleResult string

const (
	// SettleApplied: payment row inserted and paid_cents incremented.
	SettleApplied SettleResult = "applied"
	// SettleDuplicate: a payment with this charge id already exists; the
	// event was processed by an earlier delivery. Not an error.
	SettleDuplicate SettleResult = "duplicate"
	// SettleRejected: the order is not in an accepting state or the amount
	// would push paid_cents past total_cents. Nothing was written.
	SettleRejected SettleResult = "rejected"
)

// SettleParams identifies one settled charge to be recorded.
type SettleParams struct {
	OrderId             uuid.UUID
	AmountCents         int64
	Mode                tables.PaymentMode
	StripeSessionId     string
	StripePaymentIntent string
}

// catalog is the slice of CatalogService the ledger needs.
type catalog interface {
	GetActiveByIds(ctx context.Context, ids []string) (map[string]*tables.Product, error)
}

// LedgerService owns all mutations of tables, orders and payments. Every
// mutating operation runs as a single transaction scoped to one order or
// table, and every state check is re-validated inside the database with a
// conditional update. Callers must branch on the returned booleans, never on
// a prior read.
type LedgerService struct {
	logger  *gecho.Logger
	cfg     *structs.Config
	db      *database.DB
	catalog catalog
}

func NewLedgerService(logger *gecho.Logger, cfg *structs.Config, db *database.DB, catalog catalog) *LedgerService {
	return &LedgerService{
		logger:  logger,
		cfg:     cfg,
		db:      db,
		catalog: catalog,
	}
}

// CreateOrder creates an order (table tab or takeaway) from a cart of
// (product id, quantity) pairs. The total is computed strictly from the
// catalog. If the order belongs to a table, the table row is upserted and its
// cached total incremented atomically in the same transaction.
func (ls *LedgerService) CreateOrder(ctx context.Context, req *structs.OrderRequest) (order *tables.Order, err error) {
	if req.TableNumber != "" && !lib.ValidTableNumber(req.TableNumber) {
		return nil, lib.ErrInvalidTableNumber
	}
	if len(req.Products) == 0 || len(req.Products) > MaxCartItems {
		return nil, lib.ErrInvalidQuantity
	}

	productIds := make([]string, 0, len(req.Products))
	for id, qty := range req.Products {
		if qty < 1 || qty > MaxItemQuantity {
			return nil, fmt.Errorf("%w: product %s", lib.ErrInvalidQuantity, id)
		}
		productIds = append(productIds, id)
	}

	products, err := ls.catalog.GetActiveByIds(ctx, productIds)
	if err != nil {
		return nil, err
	}

	var totalCents int64
	lines := make([]*tables.OrderLine, 0, len(req.Products))
	for id, qty := range req.Products {
		product, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", lib.ErrUnknownProduct, id)
		}

		lineTotal := product.PriceCents * int64(qty)
		totalCents += lineTotal

		lines = append(lines, &tables.OrderLine{
			Id:             uuid.New(),
			ProductId:      product.Id,
			ProductName:    product.Name,
			Quantity:       qty,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: lineTotal,
		})
	}

	if totalCents < MinPaymentCents {
		return nil, fmt.Errorf("%w: order total below minimum", lib.ErrInvalidQuantity)
	}

	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			ls.logger.Error(fmt.Sprintf("panic in CreateOrder: %v", p),
				gecho.Field("stack_trace", string(debug.Stack())))
			tx.Rollback()
			err = fmt.Errorf("panic recovered: %v", p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	status := tables.OrderStatusPending
	var tableId *string
	if req.TableNumber != "" {
		status = tables.OrderStatusOpen
		tableId = &req.TableNumber

		// Upsert the table; a closed table with a fresh order reopens.
		table := &tables.RestaurantTable{
			Id:         req.TableNumber,
			Status:     tables.TableStatusOpen,
			TotalCents: 0,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		_, err = tx.NewInsert().
			Model(table).
			On("CONFLICT (id) DO UPDATE").
			Set("status = ?", tables.TableStatusOpen).
			Set("updated_at = ?", time.Now()).
			Exec(ctx)
		if err != nil {
			return nil, lib.MapPgError(err)
		}
	}

	orderId := uuid.New()
	order = &tables.Order{
		Id:          orderId,
		OrderNumber: lib.GenerateOrderNumber(),
		TableId:     tableId,
		TotalCents:  totalCents,
		PaidCents:   0,
		Status:      status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err = tx.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	for _, line := range lines {
		line.OrderId = orderId
	}
	_, err = tx.NewInsert().Model(&lines).Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	if tableId != nil {
		// The store owns this arithmetic: atomic increment, never
		// read-modify-write in application code.
		_, err = tx.NewUpdate().
			Model((*tables.RestaurantTable)(nil)).
			Set("total_cents = total_cents + ?", totalCents).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", *tableId).
			Exec(ctx)
		if err != nil {
			return nil, lib.MapPgError(err)
		}
	}

	ls.logger.Info("Order created",
		gecho.Field("order_id", orderId),
		gecho.Field("order_number", order.OrderNumber),
		gecho.Field("table_id", req.TableNumber),
		gecho.Field("total_cents", totalCents))

	return order, nil
}

// GetOrder fetches one order or ErrOrderNotFound.
func (ls *LedgerService) GetOrder(ctx context.Context, orderId uuid.UUID) (*tables.Order, error) {
	order, err := database.Query[tables.Order](ls.db).
		Where("id", orderId).
		First(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if order == nil {
		return nil, lib.ErrOrderNotFound
	}
	return order, nil
}

// GetOrderLines returns the immutable line items of an order.
func (ls *LedgerService) GetOrderLines(ctx context.Context, orderId uuid.UUID) ([]tables.OrderLine, error) {
	lines, err := database.Query[tables.OrderLine](ls.db).
		Where("order_id", orderId).
		All(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	return lines, nil
}

// GetSessions lists all sessions for the staff dashboard with their residual.
func (ls *LedgerService) GetSessions(ctx context.Context) ([]structs.SessionView, error) {
	orders, err := database.Query[tables.Order](ls.db).
		OrderBy("table_id", database.ASC).
		OrderBy("created_at", database.ASC).
		All(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	views := make([]structs.SessionView, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		views = append(views, structs.SessionView{
			Id:            o.Id.String(),
			OrderNumber:   o.OrderNumber,
			TableId:       o.TableId,
			TotalCents:    o.TotalCents,
			PaidCents:     o.PaidCents,
			ResidualCents: o.ResidualCents(),
			Status:        string(o.Status),
		})
	}
	return views, nil
}

// applyPaymentTx performs the single conditional update that moves money on
// an order. The WHERE clause re-validates, under the transaction, everything
// the caller checked beforehand: the order still accepts payments and the
// amount cannot push paid_cents past total_cents. Zero rows affected means
// the precondition failed; stale or duplicate, not an error.
func (ls *LedgerService) applyPaymentTx(ctx context.Context, tx bun.IDB, orderId uuid.UUID, amountCents int64) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*tables.Order)(nil)).
		Set("paid_cents = paid_cents + ?", amountCents).
		Set("status = CASE WHEN paid_cents + ? >= total_cents THEN 'paid' ELSE 'partial' END", amountCents).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", orderId).
		Where("status IN ('open', 'pending', 'partial')").
		Where("paid_cents + ? <= total_cents", amountCents).
		Exec(ctx)
	if err != nil {
		return false, lib.MapPgError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ApplyPayment conditionally increments paid_cents on an order. accepted is
// false (with no mutation) when the order no longer accepts this amount.
func (ls *LedgerService) ApplyPayment(ctx context.Context, orderId uuid.UUID, amountCents int64, mode tables.PaymentMode) (order *tables.Order, accepted bool, err error) {
	if amountCents < MinPaymentCents {
		return nil, false, nil
	}

	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, lib.MapPgError(err)
	}
	defer tx.Rollback()

	accepted, err = ls.applyPaymentTx(ctx, tx, orderId, amountCents)
	if err != nil {
		return nil, false, err
	}

	order = new(tables.Order)
	err = tx.NewSelect().Model(order).Where("id = ?", orderId).Scan(ctx)
	if err != nil {
		return nil, false, lib.MapPgError(err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, lib.MapPgError(err)
	}

	if !accepted {
		ls.logger.Warn("Payment not accepted by ledger",
			gecho.Field("order_id", orderId),
			gecho.Field("amount_cents", amountCents),
			gecho.Field("mode", mode),
			gecho.Field("order_status", order.Status),
			gecho.Field("paid_cents", order.PaidCents))
	}

	return order, accepted, nil
}

// Settle records one settled charge and applies it to its order in a single
// transaction. The unique constraint on the charge id makes this idempotent:
// a redelivered event fails the insert and returns SettleDuplicate. A
// rejected apply rolls the payment row back, so payments only ever contains
// charges that moved money.
func (ls *LedgerService) Settle(ctx context.Context, p *SettleParams) (SettleResult, *tables.Order, error) {
	if p.AmountCents < MinPaymentCents {
		return SettleRejected, nil, nil
	}

	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, lib.MapPgError(err)
	}
	defer tx.Rollback()

	payment := &tables.Payment{
		Id:                  uuid.New(),
		OrderId:             p.OrderId,
		AmountCents:         p.AmountCents,
		PaymentMode:         p.Mode,
		StripeSessionId:     p.StripeSessionId,
		StripePaymentIntent: p.StripePaymentIntent,
		CreatedAt:           time.Now(),
	}

	if _, err := tx.NewInsert().Model(payment).Exec(ctx); err != nil {
		if lib.IsConflict(lib.MapPgError(err)) {
			// Idempotency anchor hit: this charge was already recorded
			// by an earlier delivery.
			return SettleDuplicate, nil, nil
		}
		return "", nil, lib.MapPgError(err)
	}

	accepted, err := ls.applyPaymentTx(ctx, tx, p.OrderId, p.AmountCents)
	if err != nil {
		return "", nil, err
	}
	if !accepted {
		// Rollback discards the payment row; the event is acknowledged
		// upstream but the ledger stays untouched.
		return SettleRejected, nil, nil
	}

	order := new(tables.Order)
	if err := tx.NewSelect().Model(order).Where("id = ?", p.OrderId).Scan(ctx); err != nil {
		return "", nil, lib.MapPgError(err)
	}

	if err := tx.Commit(); err != nil {
		return "", nil, lib.MapPgError(err)
	}

	ls.logger.Info("Payment settled",
		gecho.Field("order_id", p.OrderId),
		gecho.Field("amount_cents", p.AmountCents),
		gecho.Field("mode", p.Mode),
		gecho.Field("charge_id", p.StripePaymentIntent),
		gecho.Field("order_status", order.Status))

	return SettleApplied, order, nil
}

// ClaimCheckoutSession records a provider session id against an order, but
// only if none was recorded before. Two concurrent full-payment checkouts
// race on this update; exactly one wins.
func (ls *LedgerService) ClaimCheckoutSession(ctx context.Context, orderId uuid.UUID, sessionId string) (bool, error) {
	res, err := ls.db.NewUpdate().
		Model((*tables.Order)(nil)).
		Set("stripe_session_id = ?", sessionId).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", orderId).
		Where("stripe_session_id IS NULL").
		Exec(ctx)
	if err != nil {
		return false, lib.MapPgError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// CloseIfSettled recomputes a table's residual across its non-closed orders
// and closes the table when it reaches zero. The table row is locked for the
// duration so a concurrent webhook or reopen cannot interleave. The cached
// total_cents is refreshed to the recomputed residual while the lock is held.
func (ls *LedgerService) CloseIfSettled(ctx context.Context, tableId string) (closed bool, residualCents int64, err error) {
	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, lib.MapPgError(err)
	}
	defer tx.Rollback()

	table := new(tables.RestaurantTable)
	err = tx.NewSelect().Model(table).Where("id = ?", tableId).For("UPDATE").Scan(ctx)
	if err != nil {
		if lib.IsNotFound(lib.MapPgError(err)) || errors.Is(err, sql.ErrNoRows) {
			return false, 0, lib.ErrTableNotFound
		}
		return false, 0, lib.MapPgError(err)
	}

	err = tx.NewSelect().
		Model((*tables.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total_cents - paid_cents), 0)").
		Where("table_id = ?", tableId).
		Where("status <> 'closed'").
		Scan(ctx, &residualCents)
	if err != nil {
		return false, 0, lib.MapPgError(err)
	}

	status := tables.TableStatusOpen
	if residualCents == 0 {
		status = tables.TableStatusClosed

		// Settled orders are closed with the table so a later OpenSession
		// does not mistake them for an active session.
		_, err = tx.NewUpdate().
			Model((*tables.Order)(nil)).
			Set("status = 'closed'").
			Set("updated_at = ?", time.Now()).
			Where("table_id = ?", tableId).
			Where("status <> 'closed'").
			Exec(ctx)
		if err != nil {
			return false, 0, lib.MapPgError(err)
		}
	}

	_, err = tx.NewUpdate().
		Model((*tables.RestaurantTable)(nil)).
		Set("status = ?", status).
		Set("total_cents = ?", residualCents).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", tableId).
		Exec(ctx)
	if err != nil {
		return false, 0, lib.MapPgError(err)
	}

	if err = tx.Commit(); err != nil {
		return false, 0, lib.MapPgError(err)
	}

	if status == tables.TableStatusClosed {
		ls.logger.Info("Table settled and closed", gecho.Field("table_id", tableId))
	}

	return status == tables.TableStatusClosed, residualCents, nil
}

// OpenSession opens a fresh zero-balance session for a table. Fails with
// ErrSessionAlreadyOpen when the table already has a non-closed order; the
// table row lock makes the check race-safe.
func (ls *LedgerService) OpenSession(ctx context.Context, tableId string) (*tables.Order, error) {
	if !lib.ValidTableNumber(tableId) {
		return nil, lib.ErrInvalidTableNumber
	}

	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	defer tx.Rollback()

	table := &tables.RestaurantTable{
		Id:         tableId,
		Status:     tables.TableStatusOpen,
		TotalCents: 0,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	_, err = tx.NewInsert().
		Model(table).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	// Lock the row before checking for an open session.
	err = tx.NewSelect().Model(table).Where("id = ?", tableId).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	open, err := tx.NewSelect().
		Model((*tables.Order)(nil)).
		Where("table_id = ?", tableId).
		Where("status <> 'closed'").
		Count(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if open > 0 {
		return nil, lib.ErrSessionAlreadyOpen
	}

	order, err := ls.insertZeroSessionTx(ctx, tx, tableId)
	if err != nil {
		return nil, err
	}

	_, err = tx.NewUpdate().
		Model((*tables.RestaurantTable)(nil)).
		Set("status = ?", tables.TableStatusOpen).
		Set("total_cents = 0").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", tableId).
		Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, lib.MapPgError(err)
	}

	ls.logger.Info("Session opened", gecho.Field("table_id", tableId), gecho.Field("order_id", order.Id))
	return order, nil
}

// ReopenTable closes whatever sessions a table currently has and opens a
// fresh zero-balance one, for staff restarting billing for a table.
func (ls *LedgerService) ReopenTable(ctx context.Context, tableId string) (*tables.Order, error) {
	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	defer tx.Rollback()

	table := new(tables.RestaurantTable)
	err = tx.NewSelect().Model(table).Where("id = ?", tableId).For("UPDATE").Scan(ctx)
	if err != nil {
		if lib.IsNotFound(lib.MapPgError(err)) || errors.Is(err, sql.ErrNoRows) {
			return nil, lib.ErrTableNotFound
		}
		return nil, lib.MapPgError(err)
	}

	_, err = tx.NewUpdate().
		Model((*tables.Order)(nil)).
		Set("status = 'closed'").
		Set("updated_at = ?", time.Now()).
		Where("table_id = ?", tableId).
		Where("status <> 'closed'").
		Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	order, err := ls.insertZeroSessionTx(ctx, tx, tableId)
	if err != nil {
		return nil, err
	}

	_, err = tx.NewUpdate().
		Model((*tables.RestaurantTable)(nil)).
		Set("status = ?", tables.TableStatusOpen).
		Set("total_cents = 0").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", tableId).
		Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, lib.MapPgError(err)
	}

	ls.logger.Info("Table reopened", gecho.Field("table_id", tableId), gecho.Field("order_id", order.Id))
	return order, nil
}

func (ls *LedgerService) insertZeroSessionTx(ctx context.Context, tx bun.IDB, tableId string) (*tables.Order, error) {
	order := &tables.Order{
		Id:          uuid.New(),
		OrderNumber: lib.GenerateOrderNumber(),
		TableId:     &tableId,
		TotalCents:  0,
		PaidCents:   0,
		Status:      tables.OrderStatusOpen,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
		return nil, lib.MapPgError(err)
	}
	return order, nil
}
