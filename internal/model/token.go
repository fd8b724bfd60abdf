package model

import "time"

// TokenData contains the identity stored with a session token.
type TokenData struct {
	ActorID   int64     `json:"actor_id"`
	Role      Role      `json:"role"`
	AdminID   int64     `json:"admin_id"`
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
