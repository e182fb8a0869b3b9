package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:user;index" json:"role"` // user, admin
	FullName     string `json:"fullName"`

	SchoolID *uint   `gorm:"index" json:"schoolId"`
	School   *School `json:"school,omitempty"`

	TotalXP            int        `gorm:"not null;default:0" json:"totalXP"`
	TotalPoints        int        `gorm:"not null;default:0;index" json:"totalPoints"`
	Level              int        `gorm:"not null;default:1" json:"level"`
	Rank               string     `gorm:"not null;default:Beginner" json:"rank"`
	StudyStreak        int        `gorm:"not null;default:0" json:"studyStreak"`
	LastStudyDate      *time.Time `json:"lastStudyDate"`
	CompletedMaterials int        `gorm:"not null;default:0" json:"completedMaterials"`

	// Study time in minutes.
	TotalStudyTime   int `gorm:"not null;default:0" json:"totalStudyTime"`
	WeeklyStudyTime  int `gorm:"not null;default:0" json:"weeklyStudyTime"`
	MonthlyStudyTime int `gorm:"not null;default:0" json:"monthlyStudyTime"`
}

type School struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Province string `gorm:"index" json:"province"`
	Students []User `json:"-"`
}
