package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"warehouse-sync-api/internal/cache"
	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/pkg/uid"
)

// PushItemInput is one client-created item in a push batch.
// LocalID is only echoed back in the mapping; the server never dedups on it.
type PushItemInput struct {
	LocalID           int64    `json:"localId"`
	Name              string   `json:"name"`
	Code              string   `json:"code"`
	Warehouse         string   `json:"warehouse"`
	NumberOfBoxes     int64    `json:"numberOfBoxes"`
	BoxSizeQuantities string   `json:"boxSizeQuantities"`
	SizeType          string   `json:"sizeType"`
	ItemType          string   `json:"itemType"`
	Row               *string  `json:"row,omitempty"`
	Position          *string  `json:"position,omitempty"`
	Side              *string  `json:"side,omitempty"`
	ImageURL          *string  `json:"imageUrl,omitempty"`
	TotalQuantity     int64    `json:"totalQuantity"`
	TotalValue        float64  `json:"totalValue"`
	QRCodeType        string   `json:"qrCodeType"`
	QRCodes           *string  `json:"qrCodes,omitempty"`
}

// PushTransactionInput is one client-created transaction in a push batch.
type PushTransactionInput struct {
	LocalID   int64   `json:"localId"`
	ItemID    *string `json:"itemId,omitempty"`
	Action    string  `json:"action"`
	ItemName  string  `json:"itemName"`
	Timestamp int64   `json:"timestamp"`
	Details   *string `json:"details,omitempty"`
}

// IDMapping pairs a caller-local id with the minted server id.
type IDMapping struct {
	LocalID  int64  `json:"localId"`
	ServerID string `json:"serverId"`
}

// PushResult maps every pushed element to its server identity, in input order.
type PushResult struct {
	ItemMappings        []IDMapping `json:"items"`
	TransactionMappings []IDMapping `json:"transactions"`
}

// PullResult is the delta since the caller's cursor plus the new cursor.
type PullResult struct {
	Items           []model.Item          `json:"items"`
	Transactions    []model.Transaction   `json:"transactions"`
	ApprovedActions []model.PendingAction `json:"approvedActions,omitempty"`
	LastSyncAt      time.Time             `json:"lastSyncAt"`
}

// SyncService implements the push ingest and delta pull sides of the protocol.
type SyncService struct {
	items    repository.ItemRepository
	txs      repository.TransactionRepository
	pending  repository.PendingActionRepository
	actors   repository.ActorRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewSyncService creates a new sync service.
func NewSyncService(
	items repository.ItemRepository,
	txs repository.TransactionRepository,
	pending repository.PendingActionRepository,
	actors repository.ActorRepository,
	c cache.Cache,
	cacheTTL time.Duration,
) *SyncService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SyncService{
		items:    items,
		txs:      txs,
		pending:  pending,
		actors:   actors,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Push ingests a batch of client-originated creations. Every element gets a
// fresh server identity; there is no idempotency check, so a blind client
// retry creates duplicates. A persistence failure aborts the batch without
// rolling back already-created siblings.
func (s *SyncService) Push(ctx context.Context, adminID, assistantID int64, items []PushItemInput, transactions []PushTransactionInput) (*PushResult, error) {
	if err := validatePushBatch(items, transactions); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &PushResult{
		ItemMappings:        make([]IDMapping, 0, len(items)),
		TransactionMappings: make([]IDMapping, 0, len(transactions)),
	}

	for i := range items {
		in := &items[i]
		item := &model.Item{
			ID:                uid.New(),
			AdminID:           adminID,
			Name:              in.Name,
			Code:              in.Code,
			Warehouse:         in.Warehouse,
			NumberOfBoxes:     in.NumberOfBoxes,
			BoxSizeQuantities: in.BoxSizeQuantities,
			SizeType:          in.SizeType,
			ItemType:          in.ItemType,
			Row:               in.Row,
			Position:          in.Position,
			Side:              in.Side,
			ImageURL:          in.ImageURL,
			TotalQuantity:     in.TotalQuantity,
			TotalValue:        in.TotalValue,
			QRCodeType:        in.QRCodeType,
			QRCodes:           in.QRCodes,
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.items.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to ingest item localId=%d: %w", in.LocalID, err)
		}
		result.ItemMappings = append(result.ItemMappings, IDMapping{LocalID: in.LocalID, ServerID: item.ID})
	}

	for i := range transactions {
		in := &transactions[i]
		tx := &model.Transaction{
			ID:        uid.New(),
			AdminID:   adminID,
			ItemID:    in.ItemID,
			Action:    in.Action,
			ItemName:  in.ItemName,
			Timestamp: in.Timestamp,
			Details:   in.Details,
			CreatedAt: now,
		}
		if err := s.txs.Create(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to ingest transaction localId=%d: %w", in.LocalID, err)
		}
		result.TransactionMappings = append(result.TransactionMappings, IDMapping{LocalID: in.LocalID, ServerID: tx.ID})
	}

	return result, nil
}

// Pull computes the delta since the caller's cursor. A nil cursor means the
// epoch (everything). Assistants are resolved to their owning admin and also
// receive their own APPROVED actions responded after the cursor. The new
// cursor is the wall clock at execution, clamped to never move backwards.
func (s *SyncService) Pull(ctx context.Context, actorID int64, role model.Role, since *time.Time) (*PullResult, error) {
	actor, err := s.resolveActor(ctx, actorID, role)
	if err != nil {
		return nil, err
	}

	cursor := time.Time{}
	if since != nil {
		cursor = since.UTC()
	}

	items, err := s.items.ListChangedSince(ctx, actor.AdminID, cursor)
	if err != nil {
		return nil, fmt.Errorf("pull items: %w", err)
	}

	txs, err := s.txs.ListChangedSince(ctx, actor.AdminID, cursor)
	if err != nil {
		return nil, fmt.Errorf("pull transactions: %w", err)
	}

	result := &PullResult{Items: items, Transactions: txs}

	if role == model.RoleAssistant {
		approved, err := s.pending.ListApprovedSince(ctx, actorID, cursor)
		if err != nil {
			return nil, fmt.Errorf("pull approved actions: %w", err)
		}
		result.ApprovedActions = approved
	}

	// A write landing between the queries above and this stamp is missed this
	// round; pulls are idempotent and repeated, so it is caught next time.
	newCursor := time.Now().UTC()
	if newCursor.Before(cursor) {
		newCursor = cursor
	}
	result.LastSyncAt = newCursor

	return result, nil
}

// resolveActor resolves (actorID, role) to the owning admin, caching lookups.
// The accounts repo is optional in main; without it every pull degrades to 503
// instead of panicking.
func (s *SyncService) resolveActor(ctx context.Context, actorID int64, role model.Role) (*model.Actor, error) {
	if s.actors == nil {
		return nil, fmt.Errorf("resolve actor %d: %w", actorID, ErrAccountsUnavailable)
	}

	lookup := func() (*model.Actor, error) {
		switch role {
		case model.RoleAdmin:
			return s.actors.GetAdmin(ctx, actorID)
		case model.RoleAssistant:
			return s.actors.GetAssistant(ctx, actorID)
		default:
			return nil, validationErr("role", fmt.Sprintf("unknown role %q", role))
		}
	}

	if s.cache == nil {
		return lookup()
	}

	key := "actor:" + string(role) + ":" + strconv.FormatInt(actorID, 10)
	data, err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func() ([]byte, error) {
		actor, err := lookup()
		if err != nil {
			return nil, err
		}
		return json.Marshal(actor)
	})
	if err != nil {
		return nil, err
	}

	var actor model.Actor
	if err := json.Unmarshal(data, &actor); err != nil {
		return nil, fmt.Errorf("failed to decode cached actor: %w", err)
	}
	return &actor, nil
}

func validatePushBatch(items []PushItemInput, transactions []PushTransactionInput) error {
	for i := range items {
		if items[i].Name == "" {
			return validationErr(fmt.Sprintf("items[%d].name", i), "name is required")
		}
	}
	for i := range transactions {
		if transactions[i].Action == "" {
			return validationErr(fmt.Sprintf("transactions[%d].action", i), "action is required")
		}
		if transactions[i].ItemName == "" {
			return validationErr(fmt.Sprintf("transactions[%d].itemName", i), "itemName is required")
		}
		if transactions[i].Timestamp <= 0 {
			return validationErr(fmt.Sprintf("transactions[%d].timestamp", i), "timestamp must be positive")
		}
	}
	return nil
}
