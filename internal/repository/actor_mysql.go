package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"warehouse-sync-api/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// MySQLActorRepository implements ActorRepository against the accounts database.
type MySQLActorRepository struct {
	db *sql.DB
}

// NewMySQLActorRepository creates a new MySQL actor repository.
func NewMySQLActorRepository(db *sql.DB) *MySQLActorRepository {
	return &MySQLActorRepository{db: db}
}

// GetAdmin resolves an active admin by id. An admin owns its own data.
func (r *MySQLActorRepository) GetAdmin(ctx context.Context, id int64) (*model.Actor, error) {
	query := `SELECT id, login, created_at FROM admins WHERE id = ? AND is_active = 1`

	actor := model.Actor{Role: model.RoleAdmin, IsActive: true}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&actor.ID, &actor.Login, &actor.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	actor.AdminID = actor.ID
	return &actor, nil
}

// GetAssistant resolves an active assistant by id, including its owning admin.
func (r *MySQLActorRepository) GetAssistant(ctx context.Context, id int64) (*model.Actor, error) {
	query := `SELECT id, admin_id, login, created_at FROM assistants WHERE id = ? AND is_active = 1`

	actor := model.Actor{Role: model.RoleAssistant, IsActive: true}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&actor.ID, &actor.AdminID, &actor.Login, &actor.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assistant: %w", err)
	}
	return &actor, nil
}

// ValidateCredentials checks login+password for the given role.
func (r *MySQLActorRepository) ValidateCredentials(ctx context.Context, login, password string, role model.Role) (*model.Actor, error) {
	var query string
	switch role {
	case model.RoleAdmin:
		query = `SELECT id, id AS admin_id, login, password_hash, created_at FROM admins WHERE login = ? AND is_active = 1`
	case model.RoleAssistant:
		query = `SELECT id, admin_id, login, password_hash, created_at FROM assistants WHERE login = ? AND is_active = 1`
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	actor := model.Actor{Role: role, IsActive: true}
	var hash string
	err := r.db.QueryRowContext(ctx, query, login).Scan(
		&actor.ID, &actor.AdminID, &actor.Login, &hash, &actor.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid login or password")
		}
		return nil, fmt.Errorf("failed to validate credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		log.Printf("[ActorRepository] Password mismatch for login=%s role=%s", login, role)
		return nil, fmt.Errorf("invalid login or password")
	}

	return &actor, nil
}

// Ensure MySQLActorRepository implements ActorRepository
var _ ActorRepository = (*MySQLActorRepository)(nil)
