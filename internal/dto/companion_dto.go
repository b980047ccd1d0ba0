package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateCompanionRequest is the JSON API body. Unlike the form flow, the API
// enforces the voice, style and subject enumerations itself.
type CreateCompanionRequest struct {
	Name     string `json:"name" validate:"required"`
	Subject  string `json:"subject" validate:"required,subject"`
	Topic    string `json:"topic" validate:"required"`
	Voice    string `json:"voice" validate:"required,oneof=male female"`
	Style    string `json:"style" validate:"required,oneof=formal casual"`
	Duration int    `json:"duration" validate:"min=1"`
}

type CreateCompanionResponse struct {
	Id uuid.UUID `json:"id"`
}

type CompanionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Subject   string     `json:"subject"`
	Topic     string     `json:"topic"`
	Voice     string     `json:"voice"`
	Style     string     `json:"style"`
	Duration  int        `json:"duration"`
	AuthorId  *uuid.UUID `json:"author_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ListCompanionsQuery struct {
	Subject string `query:"subject"`
	Topic   string `query:"topic"`
	Page    int    `query:"page" validate:"omitempty,min=1"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`

	// AuthorId limits the listing to one author; set from the token, never the query.
	AuthorId *uuid.UUID `query:"-"`
}

type ListCompanionsResponse struct {
	Items     []*CompanionResponse `json:"items"`
	Selection string               `json:"selection"`
	Total     int64                `json:"total"`
	Page      int                  `json:"page"`
	Limit     int                  `json:"limit"`
}

// CompanionFormResponse describes an empty form and its choices.
type CompanionFormResponse struct {
	Draft    interface{}       `json:"draft"`
	Errors   map[string]string `json:"errors,omitempty"`
	Subjects []string          `json:"subjects"`
	Voices   []string          `json:"voices"`
	Styles   []string          `json:"styles"`
}

// SubjectFilterRequest is posted when the user picks a subject.
type SubjectFilterRequest struct {
	Subject string `json:"subject" form:"subject"`
	From    string `json:"from" form:"from"`
}

// NavigationResponse is returned instead of a redirect to JSON clients.
type NavigationResponse struct {
	Location       string `json:"location"`
	Replace        bool   `json:"replace"`
	PreserveScroll bool   `json:"preserve_scroll"`
	Outcome        string `json:"outcome,omitempty"`
}

// PublishCompanionCreatedMessage travels on the in-process event bus.
type PublishCompanionCreatedMessage struct {
	CompanionId uuid.UUID `json:"companion_id"`
	Subject     string    `json:"subject"`
}
