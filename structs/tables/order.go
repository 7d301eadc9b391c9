package tables

import (
	"time"

	"github.com/google/uuid"
)

// Order is one unit of billing: a running tab tied to a table or a single
// takeaway checkout. TotalCents is computed server-side from the catalog at
// creation time and never changes afterwards; PaidCents only ever grows, and
// only through the ledger's conditional updates.
type Order struct {
	tableName   struct{}  `bun:"table:orders,alias:o"`
	Id          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id" validate:"omitempty,uuid4"`
	OrderNumber string    `bun:"order_number,notnull,unique" json:"order_number"`

	// Nullable: takeaway orders have no table.
	TableId *string `bun:"table_id" json:"table_id,omitempty"`

	TotalCents int64 `bun:"total_cents,notnull" json:"total_cents" validate:"gte=0"`
	PaidCents  int64 `bun:"paid_cents,notnull,default:0" json:"paid_cents" validate:"gte=0"`

	// Set at most once, by a conditional update during checkout creation.
	StripeSessionId *string `bun:"stripe_session_id" json:"stripe_session_id,omitempty"`

	Status    OrderStatus `bun:"status,notnull,default:'open'" json:"status" validate:"omitempty,oneof=open pending partial paid closed"`
	CreatedAt time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// ResidualCents is what is still owed on the order.
func (o *Order) ResidualCents() int64 {
	residual := o.TotalCents - o.PaidCents
	if residual < 0 {
		return 0
	}
	return residual
}

// Payable reports whether the order can still accept a payment.
func (o *Order) Payable() bool {
	switch o.Status {
	case OrderStatusOpen, OrderStatusPending, OrderStatusPartial:
		return true
	default:
		return false
	}
}

// OrderLine snapshots one cart line at order creation. Lines are immutable;
// they exist only to document how total_cents was derived.
type OrderLine struct {
	tableName struct{}  `bun:"table:order_lines,alias:ol"`
	Id        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	OrderId   uuid.UUID `bun:"order_id,notnull,type:uuid" json:"order_id"`
	ProductId string    `bun:"product_id,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity" validate:"required,min=1"`

	// Snapshot of pricing at time of order
	UnitPriceCents int64 `bun:"unit_price_cents,notnull" json:"unit_price_cents"`
	LineTotalCents int64 `bun:"line_total_cents,notnull" json:"line_total_cents"`

	// Keep the name so receipts survive menu renames
	ProductName string `bun:"product_name,notnull" json:"product_name"`
}

type OrderStatus string

const (
	OrderStatusOpen    OrderStatus = "open"
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPartial OrderStatus = "partial"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusClosed  OrderStatus = "closed"
)

type PaymentMode string

const (
	PaymentModeFull  PaymentMode = "full"
	PaymentModeSplit PaymentMode = "split"
)
