package models

import (
	"hbs/src/types"
)

type Notification struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	UserID  uint   `json:"user_id,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`
	Read    bool   `json:"read"`

	User User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
