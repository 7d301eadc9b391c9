package structs

// SessionOpenRequest opens a fresh zero-balance session for a table.
type SessionOpenRequest struct {
	TableNumber string `json:"table_number" validate:"required,max=20,alphanum_dash"`
}
