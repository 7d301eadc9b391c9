package services

import (
	"context"
	"fmt"
	"strconv"

	"aldoge_server/lib"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// Metadata keys echoed back by the completion webhook. Reconciliation reads
// amounts exclusively from here, never from client input.
const (
	MetaOrderId      = "order_id"
	MetaAmountCents  = "amount_cents"
	MetaPaymentMode  = "payment_mode"
	MetaSplitPersons = "split_persons"
	MetaTableNumber  = "table_number"
)

// checkoutLedger is the slice of LedgerService the checkout flow needs.
type checkoutLedger interface {
	GetOrder(ctx context.Context, orderId uuid.UUID) (*tables.Order, error)
	ClaimCheckoutSession(ctx context.Context, orderId uuid.UUID, sessionId string) (bool, error)
}

// CheckoutService authorizes payment sessions. It decides the charge amount
// from ledger state, never from the request, and hands the customer a
// provider-hosted payment URL.
type CheckoutService struct {
	logger   *gecho.Logger
	cfg      *structs.Config
	ledger   checkoutLedger
	provider PaymentProvider
}

func NewCheckoutService(logger *gecho.Logger, cfg *structs.Config, ledger checkoutLedger, provider PaymentProvider) *CheckoutService {
	return &CheckoutService{
		logger:   logger,
		cfg:      cfg,
		ledger:   ledger,
		provider: provider,
	}
}

// CreateCheckout validates the order state, computes the charge amount and
// creates a provider session. For full payments the session id is claimed on
// the order with a conditional update; losing that claim means another full
// checkout is already in flight, and the session we just created is expired
// best-effort so it cannot be paid.
func (cs *CheckoutService) CreateCheckout(ctx context.Context, req *structs.CheckoutRequest) (*structs.CheckoutResponse, error) {
	orderId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return nil, lib.ErrOrderNotFound
	}

	order, err := cs.ledger.GetOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}

	if !order.Payable() {
		return nil, lib.ErrOrderNotPayable
	}

	residual := order.ResidualCents()
	if residual <= 0 {
		return nil, lib.ErrNothingToPay
	}

	mode := tables.PaymentMode(req.Mode)

	var amount int64
	switch mode {
	case tables.PaymentModeFull:
		if order.StripeSessionId != nil {
			return nil, lib.ErrSessionAlreadyExists
		}
		amount = residual
	case tables.PaymentModeSplit:
		amount, err = lib.ComputeSplitCharge(residual, req.SplitPersons)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown payment mode %q", req.Mode)
	}

	metadata := map[string]string{
		MetaOrderId:     order.Id.String(),
		MetaAmountCents: strconv.FormatInt(amount, 10),
		MetaPaymentMode: string(mode),
	}
	if mode == tables.PaymentModeSplit {
		metadata[MetaSplitPersons] = strconv.Itoa(req.SplitPersons)
	}
	if order.TableId != nil {
		metadata[MetaTableNumber] = *order.TableId
	}

	session, err := cs.provider.CreateCheckoutSession(ctx, &CheckoutSessionParams{
		AmountCents: amount,
		ProductName: cs.productName(order, mode, req.SplitPersons),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	if mode == tables.PaymentModeFull {
		claimed, err := cs.ledger.ClaimCheckoutSession(ctx, orderId, session.Id)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Lost the race to a concurrent full checkout. Invalidate
			// our session so only the winner's URL can be paid.
			if expireErr := cs.provider.ExpireCheckoutSession(ctx, session.Id); expireErr != nil {
				cs.logger.Warn("Failed to expire losing checkout session",
					gecho.Field("session_id", session.Id),
					gecho.Field("order_id", orderId),
					gecho.Field("error", expireErr))
			}
			return nil, lib.ErrSessionAlreadyExists
		}
	}

	cs.logger.Info("Checkout authorized",
		gecho.Field("order_id", orderId),
		gecho.Field("mode", mode),
		gecho.Field("amount_cents", amount),
		gecho.Field("residual_cents", residual))

	return &structs.CheckoutResponse{
		Url:           session.Url,
		AmountCents:   amount,
		ResidualCents: residual,
	}, nil
}

func (cs *CheckoutService) productName(order *tables.Order, mode tables.PaymentMode, persons int) string {
	if mode == tables.PaymentModeSplit {
		if order.TableId != nil {
			return fmt.Sprintf("Quota conto tavolo %s (1 di %d)", *order.TableId, persons)
		}
		return fmt.Sprintf("Quota conto %s (1 di %d)", order.OrderNumber, persons)
	}
	if order.TableId != nil {
		return fmt.Sprintf("Conto tavolo %s", *order.TableId)
	}
	return fmt.Sprintf("Conto %s", order.OrderNumber)
}
