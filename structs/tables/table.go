package tables

import "time"

// RestaurantTable is a physical seating unit. The id is the table number or
// short code printed on the QR card (matches ^[A-Za-z0-9_-]{1,20}$).
// TotalCents is a cached projection of the residual across the table's unpaid
// orders, maintained exclusively by atomic increments inside the ledger's
// transactions.
type RestaurantTable struct {
	tableName  struct{}    `bun:"table:restaurant_tables,alias:rt"`
	Id         string      `bun:"id,pk" json:"id"`
	Status     TableStatus `bun:"status,notnull,default:'open'" json:"status"`
	TotalCents int64       `bun:"total_cents,notnull,default:0" json:"total_cents"`
	CreatedAt  time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type TableStatus string

const (
	TableStatusOpen   TableStatus = "open"
	TableStatusClosed TableStatus = "closed"
)
