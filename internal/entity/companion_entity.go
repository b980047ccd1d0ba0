// internal\entity\companion_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	VoiceMale   = "male"
	VoiceFemale = "female"

	StyleFormal = "formal"
	StyleCasual = "casual"
)

type Companion struct {
	Id        uuid.UUID
	Name      string
	Subject   string
	Topic     string
	Voice     string
	Style     string
	Duration  int // minutes
	AuthorId  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt *time.Time
}
