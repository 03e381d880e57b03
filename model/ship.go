package model

import "time"

// Ship is a supplied vessel.
type Ship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Code      string    `gorm:"size:32" json:"code"`
	Remark    string    `gorm:"size:255" json:"remark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Crew is a roster entry for one ship.
type Crew struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ShipID    int64     `gorm:"index:idx_crew_ship;not null" json:"shipId"`
	Name      string    `gorm:"size:32;not null" json:"name"`
	Duty      string    `gorm:"size:32" json:"duty"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Status    int       `gorm:"default:1" json:"status"` // 0=left 1=aboard
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
