package services

import (
	"context"
	"strconv"
	"time"

	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// PaymentEvent is the provider-neutral projection of a completed-checkout
// webhook event.
type PaymentEvent struct {
	SessionId     string
	PaymentIntent string
	AmountTotal   int64
	Metadata      map[string]string
}

// ReconcileOutcome classifies how an event was handled. Every outcome except
// a store failure is acknowledged upstream; only errors trigger redelivery.
type ReconcileOutcome string

const (
	OutcomeApplied   ReconcileOutcome = "applied"
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	OutcomeRejected  ReconcileOutcome = "rejected"
	OutcomeIgnored   ReconcileOutcome = "ignored"
)

// reconcileLedger is the slice of LedgerService reconciliation needs.
type reconcileLedger interface {
	Settle(ctx context.Context, p *SettleParams) (SettleResult, *tables.Order, error)
	CloseIfSettled(ctx context.Context, tableId string) (bool, int64, error)
}

type notifier interface {
	PaymentReceived(ctx context.Context, order *tables.Order, amountCents int64, mode tables.PaymentMode) error
}

// ReconcileService applies verified provider events to the ledger. It trusts
// amounts only from session metadata, which we wrote at authorization time;
// malformed metadata means the session was not created by this backend and
// the event is ignored rather than retried.
type ReconcileService struct {
	logger   *gecho.Logger
	cfg      *structs.Config
	ledger   reconcileLedger
	notifier notifier
}

func NewReconcileService(logger *gecho.Logger, cfg *structs.Config, ledger reconcileLedger, notifier notifier) *ReconcileService {
	return &ReconcileService{
		logger:   logger,
		cfg:      cfg,
		ledger:   ledger,
		notifier: notifier,
	}
}

// ProcessCheckoutCompleted settles one completed checkout session. Outcomes
// other than an error must be acknowledged to the provider; redelivering an
// applied or rejected event can never change the ledger again.
func (rs *ReconcileService) ProcessCheckoutCompleted(ctx context.Context, event *PaymentEvent) (ReconcileOutcome, error) {
	orderId, amountCents, mode, ok := rs.parseMetadata(event)
	if !ok {
		return OutcomeIgnored, nil
	}

	// The charge id anchors idempotency. Prefer the payment intent; fall
	// back to the session id for zero-auth edge cases where no intent is
	// attached.
	chargeId := event.PaymentIntent
	if chargeId == "" {
		chargeId = event.SessionId
	}

	if event.AmountTotal != amountCents {
		// Applied amounts come from metadata only. A mismatch with the
		// provider's amount_total is an anomaly worth flagging, not a
		// reason to trust the provider figure.
		rs.logger.Warn("Event amount_total disagrees with session metadata",
			gecho.Field("order_id", orderId),
			gecho.Field("metadata_amount_cents", amountCents),
			gecho.Field("amount_total", event.AmountTotal),
			gecho.Field("session_id", event.SessionId))
	}

	result, order, err := rs.ledger.Settle(ctx, &SettleParams{
		OrderId:             orderId,
		AmountCents:         amountCents,
		Mode:                mode,
		StripeSessionId:     event.SessionId,
		StripePaymentIntent: chargeId,
	})
	if err != nil {
		return "", err
	}

	switch result {
	case SettleDuplicate:
		rs.logger.Info("Duplicate payment event acknowledged",
			gecho.Field("order_id", orderId),
			gecho.Field("charge_id", chargeId))
		return OutcomeDuplicate, nil
	case SettleRejected:
		rs.logger.Warn("Payment event rejected by ledger",
			gecho.Field("order_id", orderId),
			gecho.Field("amount_cents", amountCents),
			gecho.Field("charge_id", chargeId))
		return OutcomeRejected, nil
	}

	if tableNumber, hasTable := event.Metadata[MetaTableNumber]; hasTable && tableNumber != "" {
		if _, _, closeErr := rs.ledger.CloseIfSettled(ctx, tableNumber); closeErr != nil {
			// The payment is already durable; table closing catches up
			// on the next event or a staff action.
			rs.logger.Error("Failed to refresh table state after settlement",
				gecho.Field("table_id", tableNumber),
				gecho.Field("order_id", orderId),
				gecho.Field("error", closeErr))
		}
	}

	if rs.notifier != nil && rs.cfg.Notify.Enabled {
		go func(o *tables.Order) {
			nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if notifyErr := rs.notifier.PaymentReceived(nctx, o, amountCents, mode); notifyErr != nil {
				rs.logger.Warn("Staff payment notification failed",
					gecho.Field("order_id", o.Id),
					gecho.Field("error", notifyErr))
			}
		}(order)
	}

	return OutcomeApplied, nil
}

// parseMetadata extracts and validates the settlement parameters we wrote at
// authorization time. Any missing or malformed field means the session did
// not originate here.
func (rs *ReconcileService) parseMetadata(event *PaymentEvent) (uuid.UUID, int64, tables.PaymentMode, bool) {
	rawOrderId, hasOrder := event.Metadata[MetaOrderId]
	rawAmount, hasAmount := event.Metadata[MetaAmountCents]
	rawMode := event.Metadata[MetaPaymentMode]

	if !hasOrder || !hasAmount {
		rs.logger.Warn("Ignoring payment event without ledger metadata",
			gecho.Field("session_id", event.SessionId))
		return uuid.Nil, 0, "", false
	}

	orderId, err := uuid.Parse(rawOrderId)
	if err != nil {
		rs.logger.Warn("Ignoring payment event with malformed order id",
			gecho.Field("session_id", event.SessionId),
			gecho.Field("order_id", rawOrderId))
		return uuid.Nil, 0, "", false
	}

	amountCents, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil || amountCents < MinPaymentCents {
		rs.logger.Warn("Ignoring payment event with malformed amount",
			gecho.Field("session_id", event.SessionId),
			gecho.Field("amount_cents", rawAmount))
		return uuid.Nil, 0, "", false
	}

	mode := tables.PaymentMode(rawMode)
	if mode != tables.PaymentModeFull && mode != tables.PaymentModeSplit {
		mode = tables.PaymentModeFull
	}

	return orderId, amountCents, mode, true
}
