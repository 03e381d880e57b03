package model

import "time"

// Category groups supply items (provisions, spares, medical, ...).
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Remark    string    `gorm:"size:255" json:"remark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Item is a supply item master-data row.
type Item struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"uniqueIndex:uniq_item_name;size:64;not null" json:"name"`
	CategoryID int64     `gorm:"uniqueIndex:uniq_item_name;index:idx_item_category;not null" json:"categoryId"`
	Unit       string    `gorm:"size:16" json:"unit"`
	Remark     string    `gorm:"size:255" json:"remark"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
