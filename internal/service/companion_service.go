package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/companion/events"
	"ai-companion-be/pkg/companionform"

	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 12
	maxLimit     = 100
)

var ErrCompanionNotFound = fmt.Errorf("companion not found: %w", serverutils.ErrNotFound)

type ICompanionService interface {
	Create(ctx context.Context, authorId *uuid.UUID, record companionform.Record) (*entity.Companion, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.CompanionResponse, error)
	List(ctx context.Context, query dto.ListCompanionsQuery) (*dto.ListCompanionsResponse, error)
}

type companionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   events.Publisher
	listingCache     *memory.ListingCache
	sentinel         string
	logger           logger.ILogger
}

func NewCompanionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	listingCache *memory.ListingCache,
	sentinel string,
	logger logger.ILogger,
) ICompanionService {
	return &companionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		listingCache:     listingCache,
		sentinel:         sentinel,
		logger:           logger,
	}
}

func (s *companionService) Create(ctx context.Context, authorId *uuid.UUID, record companionform.Record) (*entity.Companion, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	companion := entity.Companion{
		Id:        uuid.New(),
		Name:      strings.TrimSpace(record.Name),
		Subject:   normalizeSubject(record.Subject),
		Topic:     strings.TrimSpace(record.Topic),
		Voice:     record.Voice,
		Style:     record.Style,
		Duration:  record.Duration,
		AuthorId:  authorId,
		CreatedAt: time.Now(),
	}

	if err := uow.CompanionRepository().Create(ctx, &companion); err != nil {
		return nil, fmt.Errorf("create companion: %w", err)
	}

	// Already stored. A lost message must not fail the create.
	msgJson, _ := json.Marshal(dto.PublishCompanionCreatedMessage{
		CompanionId: companion.Id,
		Subject:     companion.Subject,
	})
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		s.logger.Warn("COMPANION", "Failed to publish companion created message", map[string]interface{}{
			"companion_id": companion.Id,
			"error":        err.Error(),
		})
		s.listingCache.Invalidate()
	}
	s.eventPublisher.PublishCompanionCreated(ctx, &companion)

	return &companion, nil
}

func (s *companionService) Show(ctx context.Context, id uuid.UUID) (*dto.CompanionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	companion, err := uow.CompanionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if companion == nil {
		return nil, ErrCompanionNotFound
	}
	return ToCompanionResponse(companion), nil
}

func (s *companionService) List(ctx context.Context, query dto.ListCompanionsQuery) (*dto.ListCompanionsResponse, error) {
	query = s.normalizeQuery(query)
	if cached, ok := s.listingCache.Get(query); ok {
		return cached, nil
	}

	specs := make([]specification.Specification, 0, 3)
	if query.Subject != "" {
		specs = append(specs, specification.BySubject{Subject: query.Subject})
	}
	if query.Topic != "" {
		specs = append(specs, specification.CompanionSearch{Query: query.Topic})
	}
	if query.AuthorId != nil {
		specs = append(specs, specification.AuthoredBy{AuthorID: *query.AuthorId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.CompanionRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	pageSpecs := append(append([]specification.Specification{}, specs...), specification.Pagination{
		Limit:  query.Limit,
		Offset: (query.Page - 1) * query.Limit,
	})
	companions, err := uow.CompanionRepository().FindAll(ctx, pageSpecs...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CompanionResponse, 0, len(companions))
	for _, c := range companions {
		items = append(items, ToCompanionResponse(c))
	}

	selection := query.Subject
	if selection == "" {
		selection = s.sentinel
	}
	res := &dto.ListCompanionsResponse{
		Items:     items,
		Selection: selection,
		Total:     total,
		Page:      query.Page,
		Limit:     query.Limit,
	}
	s.listingCache.Save(query, res)
	return res, nil
}

// normalizeQuery maps the sentinel subject to "no filter" and fills paging defaults.
func (s *companionService) normalizeQuery(q dto.ListCompanionsQuery) dto.ListCompanionsQuery {
	q.Subject = normalizeSubject(q.Subject)
	if q.Subject == strings.ToLower(s.sentinel) {
		q.Subject = ""
	}
	q.Topic = strings.TrimSpace(q.Topic)
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

// normalizeSubject stores and matches subjects in their enumeration form.
func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

func ToCompanionResponse(c *entity.Companion) *dto.CompanionResponse {
	return &dto.CompanionResponse{
		Id:        c.Id,
		Name:      c.Name,
		Subject:   c.Subject,
		Topic:     c.Topic,
		Voice:     c.Voice,
		Style:     c.Style,
		Duration:  c.Duration,
		AuthorId:  c.AuthorId,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewFormCreator binds the service to one author for use by a form controller.
func NewFormCreator(svc ICompanionService, authorId *uuid.UUID) companionform.Creator {
	return companionform.CreatorFunc(func(ctx context.Context, record companionform.Record) (*companionform.Entity, error) {
		companion, err := svc.Create(ctx, authorId, record)
		if err != nil {
			return nil, err
		}
		if companion == nil {
			return nil, nil
		}
		return &companionform.Entity{ID: companion.Id.String()}, nil
	})
}
