package services_test

import (
	"context"
	"errors"
	"testing"

	"aldoge_server/lib"
	"aldoge_server/services"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutLedger struct {
	order    *tables.Order
	orderErr error

	claimOK  bool
	claimErr error
	claims   []string
}

func (f *fakeCheckoutLedger) GetOrder(ctx context.Context, orderId uuid.UUID) (*tables.Order, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func (f *fakeCheckoutLedger) ClaimCheckoutSession(ctx context.Context, orderId uuid.UUID, sessionId string) (bool, error) {
	f.claims = append(f.claims, sessionId)
	return f.claimOK, f.claimErr
}

type fakeProvider struct {
	session    services.ProviderSession
	createErr  error
	lastParams *services.CheckoutSessionParams
	expired    []string
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params *services.CheckoutSessionParams) (*services.ProviderSession, error) {
	f.lastParams = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := f.session
	return &s, nil
}

func (f *fakeProvider) ExpireCheckoutSession(ctx context.Context, sessionId string) error {
	f.expired = append(f.expired, sessionId)
	return nil
}

func tableOrder(total, paid int64, status tables.OrderStatus) *tables.Order {
	tableId := "T7"
	return &tables.Order{
		Id:          uuid.New(),
		OrderNumber: "AD-000042",
		TableId:     &tableId,
		TotalCents:  total,
		PaidCents:   paid,
		Status:      status,
	}
}

func newCheckout(ledger *fakeCheckoutLedger, provider *fakeProvider) *services.CheckoutService {
	logger := gecho.NewDefaultLogger()
	cfg := &structs.Config{
		Stripe: &structs.StripeConfig{Currency: "eur"},
	}
	return services.NewCheckoutService(logger, cfg, ledger, provider)
}

func TestCreateCheckout_FullChargesResidual(t *testing.T) {
	order := tableOrder(5000, 1500, tables.OrderStatusPartial)
	ledger := &fakeCheckoutLedger{order: order, claimOK: true}
	provider := &fakeProvider{session: services.ProviderSession{Id: "cs_1", Url: "https://pay.example/cs_1"}}
	cs := newCheckout(ledger, provider)

	resp, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
		OrderId: order.Id.String(),
		Mode:    "full",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3500), resp.AmountCents)
	assert.Equal(t, int64(3500), resp.ResidualCents)
	assert.Equal(t, "https://pay.example/cs_1", resp.Url)

	// Session id must be claimed before the URL is handed out.
	require.Len(t, ledger.claims, 1)
	assert.Equal(t, "cs_1", ledger.claims[0])

	// Reconciliation reads amounts from metadata only.
	require.NotNil(t, provider.lastParams)
	assert.Equal(t, order.Id.String(), provider.lastParams.Metadata["order_id"])
	assert.Equal(t, "3500", provider.lastParams.Metadata["amount_cents"])
	assert.Equal(t, "full", provider.lastParams.Metadata["payment_mode"])
	assert.Equal(t, "T7", provider.lastParams.Metadata["table_number"])
}

func TestCreateCheckout_SplitUsesFloorDivision(t *testing.T) {
	order := tableOrder(1001, 0, tables.OrderStatusOpen)
	ledger := &fakeCheckoutLedger{order: order}
	provider := &fakeProvider{session: services.ProviderSession{Id: "cs_2", Url: "https://pay.example/cs_2"}}
	cs := newCheckout(ledger, provider)

	resp, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
		OrderId:      order.Id.String(),
		Mode:         "split",
		SplitPersons: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(333), resp.AmountCents)
	assert.Equal(t, int64(1001), resp.ResidualCents)
	assert.Equal(t, "3", provider.lastParams.Metadata["split_persons"])

	// Split sessions never claim the order's session slot.
	assert.Empty(t, ledger.claims)
}

func TestCreateCheckout_SplitAmountRoundsToZero(t *testing.T) {
	order := tableOrder(10, 0, tables.OrderStatusOpen)
	ledger := &fakeCheckoutLedger{order: order}
	provider := &fakeProvider{}
	cs := newCheckout(ledger, provider)

	_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
		OrderId:      order.Id.String(),
		Mode:         "split",
		SplitPersons: 20,
	})
	assert.ErrorIs(t, err, lib.ErrInvalidSplitAmount)
	assert.Nil(t, provider.lastParams)
}

func TestCreateCheckout_FullRejectsSecondSession(t *testing.T) {
	order := tableOrder(5000, 0, tables.OrderStatusOpen)
	existing := "cs_existing"
	order.StripeSessionId = &existing

	ledger := &fakeCheckoutLedger{order: order}
	provider := &fakeProvider{}
	cs := newCheckout(ledger, provider)

	_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
		OrderId: order.Id.String(),
		Mode:    "full",
	})
	assert.ErrorIs(t, err, lib.ErrSessionAlreadyExists)
	assert.Nil(t, provider.lastParams)
}

func TestCreateCheckout_LostClaimExpiresSession(t *testing.T) {
	order := tableOrder(5000, 0, tables.OrderStatusOpen)
	ledger := &fakeCheckoutLedger{order: order, claimOK: false}
	provider := &fakeProvider{session: services.ProviderSession{Id: "cs_loser", Url: "https://pay.example/cs_loser"}}
	cs := newCheckout(ledger, provider)

	_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
		OrderId: order.Id.String(),
		Mode:    "full",
	})
	assert.ErrorIs(t, err, lib.ErrSessionAlreadyExists)

	// The losing session must be invalidated at the provider.
	require.Len(t, provider.expired, 1)
	assert.Equal(t, "cs_loser", provider.expired[0])
}

func TestCreateCheckout_StateGuards(t *testing.T) {
	t.Run("closed order is not payable", func(t *testing.T) {
		order := tableOrder(5000, 0, tables.OrderStatusClosed)
		cs := newCheckout(&fakeCheckoutLedger{order: order}, &fakeProvider{})

		_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
			OrderId: order.Id.String(),
			Mode:    "full",
		})
		assert.ErrorIs(t, err, lib.ErrOrderNotPayable)
	})

	t.Run("settled order has nothing to pay", func(t *testing.T) {
		order := tableOrder(5000, 5000, tables.OrderStatusOpen)
		cs := newCheckout(&fakeCheckoutLedger{order: order}, &fakeProvider{})

		_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
			OrderId: order.Id.String(),
			Mode:    "full",
		})
		assert.ErrorIs(t, err, lib.ErrNothingToPay)
	})

	t.Run("missing order", func(t *testing.T) {
		cs := newCheckout(&fakeCheckoutLedger{orderErr: lib.ErrOrderNotFound}, &fakeProvider{})

		_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
			OrderId: uuid.New().String(),
			Mode:    "full",
		})
		assert.ErrorIs(t, err, lib.ErrOrderNotFound)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		order := tableOrder(5000, 0, tables.OrderStatusOpen)
		provider := &fakeProvider{createErr: errors.New("stripe is down")}
		cs := newCheckout(&fakeCheckoutLedger{order: order}, provider)

		_, err := cs.CreateCheckout(context.Background(), &structs.CheckoutRequest{
			OrderId: order.Id.String(),
			Mode:    "full",
		})
		assert.Error(t, err)
	})
}
