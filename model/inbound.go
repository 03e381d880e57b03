package model

import "time"

// InboundRecord tracks one item line of a shipment batch. Several records
// share a batchNo; each is confirmed into the ledger individually.
type InboundRecord struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"inboundId"`
	BatchNo        string        `gorm:"index:idx_inbound_batch;size:64;not null" json:"batchNo"`
	ShipID         int64         `gorm:"index:idx_inbound_ship;not null" json:"shipId"`
	ItemID         int64         `gorm:"not null" json:"itemId"`
	Quantity       int           `gorm:"not null" json:"quantity"` // requested batch quantity
	Status         InboundStatus `gorm:"size:16;not null;default:PENDING" json:"status"`
	ActualQuantity *int          `json:"actualQuantity"` // set on confirmation, may differ from Quantity
	Confirmer      string        `gorm:"size:32" json:"confirmer"`
	ConfirmRemark  string        `gorm:"size:255" json:"confirmRemark"`
	ConfirmedAt    *time.Time    `json:"confirmedAt"`
	CanceledAt     *time.Time    `json:"canceledAt"`
	CancelRemark   string        `gorm:"size:255" json:"cancelRemark"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}
