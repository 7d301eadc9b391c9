package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aldoge_server/database"
	"aldoge_server/lib"
	"aldoge_server/services"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderColumns = []string{
	"id", "order_number", "table_id", "total_cents", "paid_cents",
	"stripe_session_id", "status", "created_at", "updated_at",
}

var tableColumns = []string{"id", "status", "total_cents", "created_at", "updated_at"}

type fakeCatalog struct {
	products map[string]*tables.Product
}

func (f *fakeCatalog) GetActiveByIds(ctx context.Context, ids []string) (map[string]*tables.Product, error) {
	result := make(map[string]*tables.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func menuCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[string]*tables.Product{
		"margherita": {Id: "margherita", Name: "Pizza Margherita", Category: "pizza", PriceCents: 850, IsActive: true},
		"cola-33cl":  {Id: "cola-33cl", Name: "Cola 33cl", Category: "drink", PriceCents: 300, IsActive: true},
	}}
}

func newLedgerWithMock(t *testing.T) (*services.LedgerService, sqlmock.Sqlmock) {
	t.Helper()
	return newLedgerWithCatalog(t, nil)
}

func newLedgerWithCatalog(t *testing.T, catalog *fakeCatalog) (*services.LedgerService, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	db := database.NewFromSQL(sqldb)
	logger := gecho.NewDefaultLogger()
	cfg := &structs.Config{}

	return services.NewLedgerService(logger, cfg, db, catalog), mock
}

func orderRow(id uuid.UUID, totalCents, paidCents int64, status tables.OrderStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderColumns).
		AddRow(id.String(), "AD-000001", "T1", totalCents, paidCents, nil, string(status), now, now)
}

func TestCreateOrder_TableOrderIncrementsTableTotal(t *testing.T) {
	ledger, mock := newLedgerWithCatalog(t, menuCatalog())

	mock.ExpectBegin()
	// Table upsert and order insert both carry defaulted columns, so bun
	// appends a RETURNING clause and runs them as queries.
	mock.ExpectQuery(`INSERT INTO "restaurant_tables"`).
		WillReturnRows(sqlmock.NewRows([]string{"total_cents"}).AddRow(int64(0)))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"paid_cents", "stripe_session_id"}).AddRow(int64(0), nil))
	mock.ExpectExec(`INSERT INTO "order_lines"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "restaurant_tables"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := ledger.CreateOrder(context.Background(), &structs.OrderRequest{
		TableNumber: "T1",
		Products:    map[string]int{"margherita": 2, "cola-33cl": 1},
	})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(2*850+300), order.TotalCents)
	assert.Equal(t, int64(0), order.PaidCents)
	assert.Equal(t, tables.OrderStatusOpen, order.Status)
	require.NotNil(t, order.TableId)
	assert.Equal(t, "T1", *order.TableId)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_UnknownProductRejected(t *testing.T) {
	// The catalog only resolves active products, so an unknown id and a
	// deactivated one look the same to the ledger.
	ledger, mock := newLedgerWithCatalog(t, menuCatalog())

	order, err := ledger.CreateOrder(context.Background(), &structs.OrderRequest{
		TableNumber: "T1",
		Products:    map[string]int{"focaccia": 1},
	})
	assert.ErrorIs(t, err, lib.ErrUnknownProduct)
	assert.Nil(t, order)

	// Rejected before any transaction started.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_QuantityBounds(t *testing.T) {
	oversized := make(map[string]int, services.MaxCartItems+1)
	for i := range services.MaxCartItems + 1 {
		oversized[fmt.Sprintf("product-%d", i)] = 1
	}

	cases := []struct {
		name     string
		products map[string]int
	}{
		{"zero quantity", map[string]int{"margherita": 0}},
		{"negative quantity", map[string]int{"margherita": -3}},
		{"quantity above per-item cap", map[string]int{"margherita": services.MaxItemQuantity + 1}},
		{"empty cart", map[string]int{}},
		{"too many distinct items", oversized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger, mock := newLedgerWithCatalog(t, menuCatalog())

			order, err := ledger.CreateOrder(context.Background(), &structs.OrderRequest{
				TableNumber: "T1",
				Products:    tc.products,
			})
			assert.ErrorIs(t, err, lib.ErrInvalidQuantity)
			assert.Nil(t, order)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplyPayment_Accepted(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	orderId := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).
		WillReturnRows(orderRow(orderId, 5000, 2000, tables.OrderStatusPartial))
	mock.ExpectCommit()

	order, accepted, err := ledger.ApplyPayment(context.Background(), orderId, 2000, tables.PaymentModeSplit)
	require.NoError(t, err)
	assert.True(t, accepted)
	require.NotNil(t, order)
	assert.Equal(t, int64(3000), order.ResidualCents())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPayment_RejectedWhenOverpaying(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	orderId := uuid.New()

	// Conditional update matches no row: the amount would exceed the total.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).
		WillReturnRows(orderRow(orderId, 5000, 5000, tables.OrderStatusPaid))
	mock.ExpectCommit()

	order, accepted, err := ledger.ApplyPayment(context.Background(), orderId, 100, tables.PaymentModeFull)
	require.NoError(t, err)
	assert.False(t, accepted)
	require.NotNil(t, order)
	assert.Equal(t, int64(5000), order.PaidCents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPayment_ZeroAmountNeverTouchesStore(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)

	order, accepted, err := ledger.ApplyPayment(context.Background(), uuid.New(), 0, tables.PaymentModeFull)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_Applied(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	orderId := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).
		WillReturnRows(orderRow(orderId, 5000, 5000, tables.OrderStatusPaid))
	mock.ExpectCommit()

	result, order, err := ledger.Settle(context.Background(), &services.SettleParams{
		OrderId:             orderId,
		AmountCents:         5000,
		Mode:                tables.PaymentModeFull,
		StripeSessionId:     "cs_test_1",
		StripePaymentIntent: "pi_test_1",
	})
	require.NoError(t, err)
	assert.Equal(t, services.SettleApplied, result)
	require.NotNil(t, order)
	assert.Equal(t, tables.OrderStatusPaid, order.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_DuplicateChargeIsIdempotent(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)

	// The unique constraint on the charge id fires for a redelivered event.
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payments"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	result, order, err := ledger.Settle(context.Background(), &services.SettleParams{
		OrderId:             uuid.New(),
		AmountCents:         2500,
		Mode:                tables.PaymentModeSplit,
		StripeSessionId:     "cs_test_2",
		StripePaymentIntent: "pi_test_2",
	})
	require.NoError(t, err)
	assert.Equal(t, services.SettleDuplicate, result)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_RejectedRollsBackPaymentRow(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	result, order, err := ledger.Settle(context.Background(), &services.SettleParams{
		OrderId:             uuid.New(),
		AmountCents:         9999,
		Mode:                tables.PaymentModeFull,
		StripeSessionId:     "cs_test_3",
		StripePaymentIntent: "pi_test_3",
	})
	require.NoError(t, err)
	assert.Equal(t, services.SettleRejected, result)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCheckoutSession(t *testing.T) {
	t.Run("first claim wins", func(t *testing.T) {
		ledger, mock := newLedgerWithMock(t)

		mock.ExpectExec(`UPDATE "orders"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		claimed, err := ledger.ClaimCheckoutSession(context.Background(), uuid.New(), "cs_test_4")
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second claim loses", func(t *testing.T) {
		ledger, mock := newLedgerWithMock(t)

		mock.ExpectExec(`UPDATE "orders"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		claimed, err := ledger.ClaimCheckoutSession(context.Background(), uuid.New(), "cs_test_5")
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCloseIfSettled_ZeroResidualClosesOrdersAndTable(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "restaurant_tables"`).
		WillReturnRows(sqlmock.NewRows(tableColumns).AddRow("T1", "open", int64(2000), now, now))
	mock.ExpectQuery(`SELECT COALESCE`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "restaurant_tables"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	closed, residual, err := ledger.CloseIfSettled(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, int64(0), residual)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIfSettled_OutstandingResidualKeepsTableOpen(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	now := time.Now()

	// Orders stay untouched; only the cached table total is refreshed.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "restaurant_tables"`).
		WillReturnRows(sqlmock.NewRows(tableColumns).AddRow("T1", "open", int64(2000), now, now))
	mock.ExpectQuery(`SELECT COALESCE`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(1500)))
	mock.ExpectExec(`UPDATE "restaurant_tables"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	closed, residual, err := ledger.CloseIfSettled(context.Background(), "T1")
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, int64(1500), residual)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIfSettled_UnknownTable(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "restaurant_tables"`).
		WillReturnRows(sqlmock.NewRows(tableColumns))
	mock.ExpectRollback()

	closed, residual, err := ledger.CloseIfSettled(context.Background(), "T404")
	assert.ErrorIs(t, err, lib.ErrTableNotFound)
	assert.False(t, closed)
	assert.Equal(t, int64(0), residual)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_NotFound(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)

	mock.ExpectQuery(`SELECT (.+) FROM "orders"`).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	_, err := ledger.GetOrder(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
