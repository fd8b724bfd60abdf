package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UpdateItemPayload is the newData schema for UPDATE_ITEM actions.
// Only non-nil fields are merged into the item on approval.
type UpdateItemPayload struct {
	Name              *string  `json:"name,omitempty"`
	Code              *string  `json:"code,omitempty"`
	Warehouse         *string  `json:"warehouse,omitempty"`
	NumberOfBoxes     *int64   `json:"numberOfBoxes,omitempty"`
	BoxSizeQuantities *string  `json:"boxSizeQuantities,omitempty"`
	SizeType          *string  `json:"sizeType,omitempty"`
	ItemType          *string  `json:"itemType,omitempty"`
	Row               *string  `json:"row,omitempty"`
	Position          *string  `json:"position,omitempty"`
	Side              *string  `json:"side,omitempty"`
	ImageURL          *string  `json:"imageUrl,omitempty"`
	TotalQuantity     *int64   `json:"totalQuantity,omitempty"`
	TotalValue        *float64 `json:"totalValue,omitempty"`
	QRCodeType        *string  `json:"qrCodeType,omitempty"`
	QRCodes           *string  `json:"qrCodes,omitempty"`
	Quantity          *int64   `json:"quantity,omitempty"` // client shorthand for totalQuantity
}

// IsEmpty reports whether no field is set.
func (p *UpdateItemPayload) IsEmpty() bool {
	return p.Name == nil && p.Code == nil && p.Warehouse == nil &&
		p.NumberOfBoxes == nil && p.BoxSizeQuantities == nil && p.SizeType == nil &&
		p.ItemType == nil && p.Row == nil && p.Position == nil && p.Side == nil &&
		p.ImageURL == nil && p.TotalQuantity == nil && p.TotalValue == nil &&
		p.QRCodeType == nil && p.QRCodes == nil && p.Quantity == nil
}

// DecodeUpdateItemPayload parses and validates newData for an UPDATE_ITEM action.
// Unknown fields are rejected so a malformed request fails at construction
// rather than at approval time.
func DecodeUpdateItemPayload(data json.RawMessage) (*UpdateItemPayload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("newData is required for UPDATE_ITEM")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p UpdateItemPayload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid UPDATE_ITEM payload: %w", err)
	}
	if p.IsEmpty() {
		return nil, fmt.Errorf("UPDATE_ITEM payload must set at least one field")
	}
	return &p, nil
}

// ValidateActionData checks the oldData/newData pair against the action type.
// oldData must be a JSON object snapshot of the affected record; newData is
// typed per action: a non-empty UpdateItemPayload for UPDATE_ITEM, and absent
// (or null/empty object) for deletes.
func ValidateActionData(actionType PendingActionType, oldData, newData json.RawMessage) error {
	if !isJSONObject(oldData) {
		return fmt.Errorf("oldData must be a JSON object snapshot")
	}

	switch actionType {
	case ActionUpdateItem:
		_, err := DecodeUpdateItemPayload(newData)
		return err
	case ActionDeleteItem, ActionDeleteTransaction:
		if len(newData) == 0 {
			return nil
		}
		trimmed := bytes.TrimSpace(newData)
		if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
			return nil
		}
		return fmt.Errorf("newData must be empty for %s", actionType)
	default:
		return fmt.Errorf("unknown action type %q", actionType)
	}
}

func isJSONObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var m map[string]json.RawMessage
	return json.Unmarshal(trimmed, &m) == nil
}
