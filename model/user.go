package model

import "time"

// User roles. Admin users operate the shore-side console; ship users log in
// from the on-board app and are bound to a single ship.
const (
	RoleAdmin = "admin"
	RoleShip  = "ship"
)

// User represents an operator account.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:64;not null" json:"-"`
	Name         string     `gorm:"size:32" json:"name"`
	Role         string     `gorm:"size:16;not null;default:ship" json:"role"`
	ShipID       *int64     `gorm:"index" json:"shipId"`
	Status       int        `gorm:"default:1" json:"status"` // 0=disabled 1=normal
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	LastLoginIP  string     `gorm:"size:45" json:"lastLoginIp"`
}
