package services_test

import (
	"context"
	"errors"
	"testing"

	"aldoge_server/services"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconcileLedger struct {
	settleResult services.SettleResult
	settleOrder  *tables.Order
	settleErr    error
	settled      []*services.SettleParams

	closedTables []string
	closeErr     error
}

func (f *fakeReconcileLedger) Settle(ctx context.Context, p *services.SettleParams) (services.SettleResult, *tables.Order, error) {
	f.settled = append(f.settled, p)
	return f.settleResult, f.settleOrder, f.settleErr
}

func (f *fakeReconcileLedger) CloseIfSettled(ctx context.Context, tableId string) (bool, int64, error) {
	f.closedTables = append(f.closedTables, tableId)
	return true, 0, f.closeErr
}

func newReconcile(ledger *fakeReconcileLedger) *services.ReconcileService {
	logger := gecho.NewDefaultLogger()
	cfg := &structs.Config{
		Notify: &structs.NotifyConfig{Enabled: false},
	}
	return services.NewReconcileService(logger, cfg, ledger, nil)
}

func completedEvent(orderId uuid.UUID, amount string) *services.PaymentEvent {
	return &services.PaymentEvent{
		SessionId:     "cs_evt_1",
		PaymentIntent: "pi_evt_1",
		AmountTotal:   2500,
		Metadata: map[string]string{
			"order_id":     orderId.String(),
			"amount_cents": amount,
			"payment_mode": "full",
			"table_number": "T3",
		},
	}
}

func TestProcessCheckoutCompleted_Applied(t *testing.T) {
	orderId := uuid.New()
	ledger := &fakeReconcileLedger{
		settleResult: services.SettleApplied,
		settleOrder:  &tables.Order{Id: orderId, TotalCents: 2500, PaidCents: 2500, Status: tables.OrderStatusPaid},
	}
	rs := newReconcile(ledger)

	outcome, err := rs.ProcessCheckoutCompleted(context.Background(), completedEvent(orderId, "2500"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeApplied, outcome)

	require.Len(t, ledger.settled, 1)
	assert.Equal(t, orderId, ledger.settled[0].OrderId)
	assert.Equal(t, int64(2500), ledger.settled[0].AmountCents)
	assert.Equal(t, "pi_evt_1", ledger.settled[0].StripePaymentIntent)

	// Table residual is refreshed after a successful settlement.
	assert.Equal(t, []string{"T3"}, ledger.closedTables)
}

func TestProcessCheckoutCompleted_FallsBackToSessionId(t *testing.T) {
	orderId := uuid.New()
	ledger := &fakeReconcileLedger{
		settleResult: services.SettleApplied,
		settleOrder:  &tables.Order{Id: orderId},
	}
	rs := newReconcile(ledger)

	event := completedEvent(orderId, "2500")
	event.PaymentIntent = ""

	_, err := rs.ProcessCheckoutCompleted(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, ledger.settled, 1)
	assert.Equal(t, "cs_evt_1", ledger.settled[0].StripePaymentIntent)
}

func TestProcessCheckoutCompleted_Duplicate(t *testing.T) {
	ledger := &fakeReconcileLedger{settleResult: services.SettleDuplicate}
	rs := newReconcile(ledger)

	outcome, err := rs.ProcessCheckoutCompleted(context.Background(), completedEvent(uuid.New(), "2500"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, outcome)

	// A duplicate changes nothing; the table is left alone.
	assert.Empty(t, ledger.closedTables)
}

func TestProcessCheckoutCompleted_Rejected(t *testing.T) {
	ledger := &fakeReconcileLedger{settleResult: services.SettleRejected}
	rs := newReconcile(ledger)

	outcome, err := rs.ProcessCheckoutCompleted(context.Background(), completedEvent(uuid.New(), "2500"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeRejected, outcome)
	assert.Empty(t, ledger.closedTables)
}

func TestProcessCheckoutCompleted_MalformedMetadataIsIgnored(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *services.PaymentEvent)
	}{
		{"missing order id", func(e *services.PaymentEvent) { delete(e.Metadata, "order_id") }},
		{"missing amount", func(e *services.PaymentEvent) { delete(e.Metadata, "amount_cents") }},
		{"garbage order id", func(e *services.PaymentEvent) { e.Metadata["order_id"] = "not-a-uuid" }},
		{"garbage amount", func(e *services.PaymentEvent) { e.Metadata["amount_cents"] = "12.50" }},
		{"zero amount", func(e *services.PaymentEvent) { e.Metadata["amount_cents"] = "0" }},
		{"negative amount", func(e *services.PaymentEvent) { e.Metadata["amount_cents"] = "-100" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeReconcileLedger{settleResult: services.SettleApplied}
			rs := newReconcile(ledger)

			event := completedEvent(uuid.New(), "2500")
			tt.mutate(event)

			outcome, err := rs.ProcessCheckoutCompleted(context.Background(), event)
			require.NoError(t, err)
			assert.Equal(t, services.OutcomeIgnored, outcome)
			assert.Empty(t, ledger.settled)
		})
	}
}

func TestProcessCheckoutCompleted_StoreFailurePropagates(t *testing.T) {
	ledger := &fakeReconcileLedger{settleErr: errors.New("connection refused")}
	rs := newReconcile(ledger)

	_, err := rs.ProcessCheckoutCompleted(context.Background(), completedEvent(uuid.New(), "2500"))
	assert.Error(t, err)
}
