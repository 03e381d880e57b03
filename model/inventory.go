package model

import "time"

// InventoryLine is the on-hand ledger row for one (ship, item) pair.
// Quantity is mutated only inside stock.Service transactions and must never
// go negative; a write that would underflow is rejected, not clamped.
type InventoryLine struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ShipID    int64     `gorm:"uniqueIndex:uniq_ship_item;not null" json:"shipId"`
	ItemID    int64     `gorm:"uniqueIndex:uniq_ship_item;not null" json:"itemId"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	Threshold *int      `json:"threshold"` // warn when quantity <= threshold
	Remark    string    `gorm:"size:255" json:"remark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
