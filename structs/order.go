package structs

// OrderRequest creates an order for a table tab or a takeaway cart.
// Products maps product id -> quantity; totals are always recomputed from the
// catalog, any price a client sends is ignored.
type OrderRequest struct {
	TableNumber string         `json:"table_number" validate:"omitempty,max=20,alphanum_dash"`
	Products    map[string]int `json:"products" validate:"required,min=1,max=30"`
}

// CheckoutRequest asks for a payment-provider session against an existing
// order. Mode "split" divides the residual between SplitPersons payers.
type CheckoutRequest struct {
	OrderId      string `json:"order_id" validate:"required,uuid4"`
	Mode         string `json:"mode" validate:"required,oneof=full split"`
	SplitPersons int    `json:"split_persons" validate:"omitempty,min=2,max=20"`
}

// CheckoutResponse carries the redirect URL plus the amounts the client should
// display; AmountCents is what this session will charge, ResidualCents what was
// outstanding at authorization time.
type CheckoutResponse struct {
	Url           string `json:"url"`
	AmountCents   int64  `json:"amount_cents"`
	ResidualCents int64  `json:"residual_cents"`
}

// SessionView is the staff-dashboard projection of one order/session.
type SessionView struct {
	Id            string  `json:"id"`
	OrderNumber   string  `json:"order_number"`
	TableId       *string `json:"table_id,omitempty"`
	TotalCents    int64   `json:"total_cents"`
	PaidCents     int64   `json:"paid_cents"`
	ResidualCents int64   `json:"residual_cents"`
	Status        string  `json:"status"`
}

// ProductUpdateRequest lets staff change a menu item's price or availability.
type ProductUpdateRequest struct {
	PriceCents *int64 `json:"price_cents" validate:"omitempty,gte=0"`
	IsActive   *bool  `json:"is_active"`
}
