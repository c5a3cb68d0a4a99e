package db

import (
	"time"

	"gorm.io/datatypes"
)

type Player struct {
	ID          uint           `gorm:"primaryKey;autoIncrement:false"`
	Name        string         `gorm:"size:64;not null;uniqueIndex"`
	Avatar      string         `gorm:"type:text;not null;default:''"`
	SocialLinks datatypes.JSON `gorm:"type:jsonb;not null"`
	Games       datatypes.JSON `gorm:"type:jsonb;not null"`
	IsOnline    bool           `gorm:"not null;default:false"`
	Position    int            `gorm:"not null;default:0"`
	X           *float64
	Y           *float64
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// Session holds the single recorded current user. The row with ID 1 is the
// only one ever written.
type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    *uint     `gorm:"index"`
	UserName  string    `gorm:"size:64"`
	Role      string    `gorm:"size:16"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

const CurrentSessionID = 1
