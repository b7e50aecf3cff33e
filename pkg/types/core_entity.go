package types

// CoreEntity is the shared record dynamic rows link to through core_ref.
type CoreEntity struct {
	ID          int64  `json:"id" db:"id"`
	UUID        string `json:"uuid" db:"uuid"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
	UpdatedAt   int64  `json:"updated_at" db:"updated_at"`
}
