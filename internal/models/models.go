package models

import (
	"time"

	"github.com/Skotchmaster/cities_manager/internal/tokens"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	PersonName            string    `gorm:"not null"              json:"personName"`
	Email                 string    `gorm:"uniqueIndex;not null"  json:"email"`
	PhoneNumber           string    `json:"phoneNumber"`
	PasswordHash          string    `gorm:"not null"              json:"-"`
	RefreshTokenHash      string    `gorm:"index"                 json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) Identity() tokens.Identity {
	return tokens.Identity{ID: u.ID, Name: u.PersonName, Email: u.Email}
}

type City struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"cityID"`
	Name string    `gorm:"not null"             json:"cityName"`
}

func (c *City) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
