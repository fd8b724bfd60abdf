package model

import "time"

// Transaction is an append-only activity record referencing an item.
// Immutable once written, except for the one-way IsDeleted flag.
type Transaction struct {
	ID        string    `json:"id"`
	AdminID   int64     `json:"adminId"`
	ItemID    *string   `json:"itemId,omitempty"`
	Action    string    `json:"action"`
	ItemName  string    `json:"itemName"`
	Timestamp int64     `json:"timestamp"` // client-supplied, unix milliseconds
	Details   *string   `json:"details,omitempty"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
}
