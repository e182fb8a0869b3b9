package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category struct {
	gorm.Model
	Name          string        `gorm:"not null" json:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

type Subcategory struct {
	gorm.Model
	CategoryID uint   `gorm:"index;not null" json:"categoryId"`
	Name       string `gorm:"not null" json:"name"`
}

type Material struct {
	gorm.Model
	Title         string  `gorm:"not null" json:"title"`
	CategoryID    uint    `gorm:"index" json:"categoryId"`
	SubcategoryID *uint   `gorm:"index" json:"subcategoryId"`
	XPReward      int     `gorm:"not null;default:0" json:"xpReward"`
	EstimatedTime int     `gorm:"not null;default:0" json:"estimatedTime"` // minutes
	Stages        []Stage `json:"stages,omitempty"`
}

type Stage struct {
	gorm.Model
	MaterialID    uint           `gorm:"index;not null" json:"materialId"`
	Title         string         `json:"title"`
	SequenceOrder int            `gorm:"not null;default:0" json:"order"`
	Contents      datatypes.JSON `json:"contents"`
}
