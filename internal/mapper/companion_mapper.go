package mapper

import (
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type CompanionMapper struct{}

func NewCompanionMapper() *CompanionMapper {
	return &CompanionMapper{}
}

func (m *CompanionMapper) ToEntity(c *model.Companion) *entity.Companion {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Companion{
		Id:        c.Id,
		Name:      c.Name,
		Subject:   c.Subject,
		Topic:     c.Topic,
		Voice:     c.Voice,
		Style:     c.Style,
		Duration:  c.Duration,
		AuthorId:  c.AuthorId,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *CompanionMapper) ToModel(c *entity.Companion) *model.Companion {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Companion{
		Id:        c.Id,
		Name:      c.Name,
		Subject:   c.Subject,
		Topic:     c.Topic,
		Voice:     c.Voice,
		Style:     c.Style,
		Duration:  c.Duration,
		AuthorId:  c.AuthorId,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *CompanionMapper) ToEntities(companions []*model.Companion) []*entity.Companion {
	entities := make([]*entity.Companion, len(companions))
	for i, c := range companions {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
