package model

import "time"

// Role distinguishes the two principals of the sync protocol.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleAssistant Role = "ASSISTANT"
)

// Actor is a resolved identity: who is calling and which admin's data they own.
// For admins AdminID equals ID; for assistants it is the owning admin.
type Actor struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	AdminID   int64     `json:"adminId"`
	Login     string    `json:"login"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
