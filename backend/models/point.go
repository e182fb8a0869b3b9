package models

import "time"

// MaterialCompletionStage is the StageIndex of the single point granted when
// a whole material is completed through the coarse progress update.
const MaterialCompletionStage = -1

// Point is an append-only grant. At most one row exists per
// (user, material, stage); the unique index enforces it.
type Point struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex:idx_point_user_material_stage,priority:1;not null" json:"userId"`
	MaterialID    uint      `gorm:"uniqueIndex:idx_point_user_material_stage,priority:2;not null" json:"materialId"`
	StageIndex    int       `gorm:"uniqueIndex:idx_point_user_material_stage,priority:3;not null" json:"stageIndex"`
	CategoryID    uint      `gorm:"index" json:"categoryId"`
	SubcategoryID *uint     `json:"subcategoryId"`
	Value         int       `gorm:"not null" json:"value"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}
