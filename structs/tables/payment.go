package tables

import (
	"time"

	"github.com/google/uuid"
)

// Payment is an immutable record of one settled charge against an order.
// Rows are created only by the reconciliation path, never updated or deleted.
// The unique constraint on StripePaymentIntent is the idempotency anchor: a
// redelivered webhook for the same charge fails the insert and is treated as
// already processed.
type Payment struct {
	tableName   struct{}    `bun:"table:payments,alias:pay"`
	Id          uuid.UUID   `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	OrderId     uuid.UUID   `bun:"order_id,notnull,type:uuid" json:"order_id"`
	AmountCents int64       `bun:"amount_cents,notnull" json:"amount_cents" validate:"gt=0"`
	PaymentMode PaymentMode `bun:"payment_mode,notnull" json:"payment_mode" validate:"oneof=full split"`

	StripeSessionId     string `bun:"stripe_session_id,notnull" json:"stripe_session_id"`
	StripePaymentIntent string `bun:"stripe_payment_intent,notnull,unique" json:"stripe_payment_intent"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
