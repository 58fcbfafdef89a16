package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username       string     `json:"username" gorm:"uniqueIndex;not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Name           string     `json:"name" gorm:"not null"`
	PasswordHash   string     `json:"-" gorm:"not null"`
	ProfilePicture string     `json:"profile_picture" gorm:"default:null"`
	FollowersCount int        `json:"followers_count" gorm:"not null;default:0"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login"`
}

type Subscription struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	PlanName  string     `json:"plan_name" gorm:"not null"`
	Tier      int        `json:"tier" gorm:"not null;default:0"`
	Active    bool       `json:"active" gorm:"not null;default:true;index"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

func (s *Subscription) BeforeSave(*gorm.DB) error {
	s.CreatedAt = s.CreatedAt.UTC()
	s.EndDate = utcPtr(s.EndDate)
	return nil
}
