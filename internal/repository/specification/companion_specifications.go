package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySubject filters companions by subject
type BySubject struct {
	Subject string
}

func (s BySubject) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subject = ?", s.Subject)
}

// CompanionSearch matches name or topic (case insensitive)
type CompanionSearch struct {
	Query string
}

func (s CompanionSearch) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + escapeLike(s.Query) + "%"
	return db.Where("(name ILIKE ? OR topic ILIKE ?)", pattern, pattern)
}

// AuthoredBy filters by the companion's author
type AuthoredBy struct {
	AuthorID uuid.UUID
}

func (s AuthoredBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("author_id = ?", s.AuthorID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
