package model

import "time"

// ClaimRecord tracks one stock withdrawal. The ledger is decremented when the
// claim is created; cancelling restores the quantity.
type ClaimRecord struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"claimId"`
	ShipID       int64       `gorm:"index:idx_claim_ship;not null" json:"shipId"`
	ItemID       int64       `gorm:"not null" json:"itemId"`
	Quantity     int         `gorm:"not null" json:"quantity"`
	Claimer      string      `gorm:"index:idx_claim_claimer;size:32;not null" json:"claimer"`
	Status       ClaimStatus `gorm:"size:16;not null;default:CLAIMED" json:"status"`
	ClaimRemark  string      `gorm:"size:255" json:"claimRemark"`
	ClaimedAt    time.Time   `gorm:"autoCreateTime" json:"claimedAt"`
	CanceledAt   *time.Time  `json:"canceledAt"`
	CancelRemark string      `gorm:"size:255" json:"cancelRemark"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}
