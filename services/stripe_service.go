package services

import (
	"context"
	"fmt"

	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// CheckoutSessionParams describes one hosted-checkout session to create. The
// amount is always computed server-side; metadata is echoed back verbatim in
// the completion webhook and is the only client-independent channel we trust.
type CheckoutSessionParams struct {
	AmountCents int64
	ProductName string
	Metadata    map[string]string
}

// ProviderSession is the provider-issued session handle.
type ProviderSession struct {
	Id  string
	Url string
}

// PaymentProvider abstracts the hosted-checkout provider so the checkout flow
// can be tested without network calls.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*ProviderSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionId string) error
}

// StripeService implements PaymentProvider against the Stripe API.
type StripeService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	api    *client.API
}

func NewStripeService(logger *gecho.Logger, cfg *structs.Config) *StripeService {
	api := &client.API{}
	api.Init(cfg.Stripe.SecretKey, nil)

	return &StripeService{
		logger: logger,
		cfg:    cfg,
		api:    api,
	}
}

// CreateCheckoutSession creates a single-line-item hosted checkout session
// for a fixed amount.
func (ss *StripeService) CreateCheckoutSession(ctx context.Context, p *CheckoutSessionParams) (*ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(ss.cfg.Stripe.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(ss.cfg.Server.SiteURL + ss.cfg.Stripe.SuccessPath),
		CancelURL:  stripe.String(ss.cfg.Server.SiteURL + ss.cfg.Stripe.CancelPath),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := ss.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	ss.logger.Info("Checkout session created",
		gecho.Field("session_id", session.ID),
		gecho.Field("amount_cents", p.AmountCents))

	return &ProviderSession{Id: session.ID, Url: session.URL}, nil
}

// ExpireCheckoutSession invalidates a session that lost the claim race so the
// customer cannot pay against it.
func (ss *StripeService) ExpireCheckoutSession(ctx context.Context, sessionId string) error {
	params := &stripe.CheckoutSessionExpireParams{
		Params: stripe.Params{Context: ctx},
	}
	_, err := ss.api.CheckoutSessions.Expire(sessionId, params)
	if err != nil {
		return fmt.Errorf("failed to expire checkout session %s: %w", sessionId, err)
	}
	return nil
}

// VerifyWebhookEvent checks the webhook signature and parses the event. The
// API version mismatch check is relaxed; the fields we read are stable across
// the versions Stripe sends.
func VerifyWebhookEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
