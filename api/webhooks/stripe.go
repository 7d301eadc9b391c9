package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"aldoge_server/api/health"
	"aldoge_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v78"
)

// Stripe webhook payloads are small; anything larger is not from Stripe.
const maxWebhookBodyBytes = 65536

// HandleStripeWebhook is the reconciliation entry point. Status codes are the
// retry contract with Stripe: 2xx acknowledges the event forever, 4xx drops
// it, and only a 5xx (store failure) triggers redelivery. Every outcome that
// cannot change the ledger on a retry must therefore be acknowledged.
func (wrm *WebhookRoutesManager) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		wrm.logger.Warn("Failed to read webhook payload", gecho.Field("error", err))
		gecho.BadRequest(w, gecho.WithMessage("invalid payload"), gecho.Send())
		return
	}

	event, err := services.VerifyWebhookEvent(payload, r.Header.Get("Stripe-Signature"), wrm.cfg.Stripe.WebhookSecret)
	if err != nil {
		wrm.logger.Warn("Webhook signature verification failed", gecho.Field("error", err))
		gecho.BadRequest(w, gecho.WithMessage("invalid signature"), gecho.Send())
		return
	}

	if event.Type != "checkout.session.completed" {
		// Not subscribed to anything else; acknowledge and move on.
		gecho.Success(w, gecho.WithMessage("ignored"), gecho.Send())
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		// Signed but unparseable. Redelivery would only replay the same
		// bytes, so acknowledge instead of sending Stripe into a retry loop.
		wrm.logger.Warn("Malformed checkout session in verified event",
			gecho.Field("event_id", event.ID),
			gecho.Field("error", err))
		gecho.Success(w, gecho.WithMessage("ignored"), gecho.Send())
		return
	}

	paymentIntent := ""
	if session.PaymentIntent != nil {
		paymentIntent = session.PaymentIntent.ID
	}

	outcome, err := wrm.reconcileService.ProcessCheckoutCompleted(r.Context(), &services.PaymentEvent{
		SessionId:     session.ID,
		PaymentIntent: paymentIntent,
		AmountTotal:   session.AmountTotal,
		Metadata:      session.Metadata,
	})
	if err != nil {
		// Store failure. Tell Stripe to redeliver; the idempotency anchor
		// makes the retry safe.
		wrm.logger.Error("Failed to reconcile payment event",
			gecho.Field("event_id", event.ID),
			gecho.Field("session_id", session.ID),
			gecho.Field("error", err))
		gecho.InternalServerError(w, gecho.Send())
		return
	}

	health.PaymentEvents.With(prometheus.Labels{"outcome": string(outcome)}).Inc()

	gecho.Success(w,
		gecho.WithMessage(string(outcome)),
		gecho.Send(),
	)
}
