package model

import "time"

// Item represents a warehouse item owned by one admin.
// Version only increases; IsDeleted never reverts to false.
type Item struct {
	ID                string    `json:"id"`
	AdminID           int64     `json:"adminId"`
	Name              string    `json:"name"`
	Code              string    `json:"code"`
	Warehouse         string    `json:"warehouse"`
	NumberOfBoxes     int64     `json:"numberOfBoxes"`
	BoxSizeQuantities string    `json:"boxSizeQuantities"`
	SizeType          string    `json:"sizeType"`
	ItemType          string    `json:"itemType"`
	Row               *string   `json:"row,omitempty"`
	Position          *string   `json:"position,omitempty"`
	Side              *string   `json:"side,omitempty"`
	ImageURL          *string   `json:"imageUrl,omitempty"`
	TotalQuantity     int64     `json:"totalQuantity"`
	TotalValue        float64   `json:"totalValue"`
	QRCodeType        string    `json:"qrCodeType"`
	QRCodes           *string   `json:"qrCodes,omitempty"`
	Version           int64     `json:"version"`
	IsDeleted         bool      `json:"isDeleted"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
