package tables

import "time"

// Product is one menu item. Ids are the short codes the menu frontend uses
// ("margherita", "cola-33cl"); prices live here and nowhere else; the ledger
// never trusts a client-submitted price.
type Product struct {
	tableName  struct{}  `bun:"table:products,alias:p"`
	Id         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Category   string    `bun:"category,notnull" json:"category"` // pizza, drink, ...
	PriceCents int64     `bun:"price_cents,notnull" json:"price_cents" validate:"gte=0"`
	IsActive   bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
