package model

import (
	"time"

	"github.com/google/uuid"
)

type Companion struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string     `gorm:"type:varchar(255);not null"`
	Subject   string     `gorm:"type:varchar(100);not null;index"`
	Topic     string     `gorm:"type:text;not null"`
	Voice     string     `gorm:"type:varchar(20);not null"`
	Style     string     `gorm:"type:varchar(20);not null"`
	Duration  int        `gorm:"not null;default:15"`
	AuthorId  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (Companion) TableName() string {
	return "companions"
}
