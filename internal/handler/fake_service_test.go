package handler

import (
	"context"
	"sync"
	"time"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"
	"ai-companion-be/pkg/companionform"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

type fakeCompanionService struct {
	mu       sync.Mutex
	records  []companionform.Record
	authors  []*uuid.UUID
	createFn func(ctx context.Context, authorId *uuid.UUID, record companionform.Record) (*entity.Companion, error)
	queries  []dto.ListCompanionsQuery
	shown    map[uuid.UUID]*dto.CompanionResponse
}

func (f *fakeCompanionService) Create(ctx context.Context, authorId *uuid.UUID, record companionform.Record) (*entity.Companion, error) {
	f.mu.Lock()
	f.records = append(f.records, record)
	f.authors = append(f.authors, authorId)
	fn := f.createFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, authorId, record)
	}
	return &entity.Companion{Id: uuid.New(), Name: record.Name, CreatedAt: time.Now()}, nil
}

func (f *fakeCompanionService) Show(ctx context.Context, id uuid.UUID) (*dto.CompanionResponse, error) {
	if c, ok := f.shown[id]; ok {
		return c, nil
	}
	return nil, service.ErrCompanionNotFound
}

func (f *fakeCompanionService) List(ctx context.Context, query dto.ListCompanionsQuery) (*dto.ListCompanionsResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return &dto.ListCompanionsResponse{
		Items:     []*dto.CompanionResponse{},
		Selection: "from-service",
		Page:      1,
		Limit:     12,
	}, nil
}

func (f *fakeCompanionService) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func testCompanionConfig() config.CompanionConfig {
	return config.CompanionConfig{
		Subjects:        config.DefaultSubjects,
		ListingPath:     "/companions",
		FallbackPath:    "/",
		FilterKey:       "subject",
		FilterSentinel:  "all",
		DefaultDuration: 15,
	}
}

func newTestApp(svc service.ICompanionService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())

	log := logger.NewNopLogger()
	cfg := testCompanionConfig()
	NewCompanionFormHandler(svc, cfg, log).RegisterRoutes(app, serverutils.OptionalJwtMiddleware(testSecret))
	NewSubjectFilterHandler(svc, cfg, log).RegisterRoutes(app)
	return app
}

func bearer(userID uuid.UUID) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID.String()})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		panic(err)
	}
	return "Bearer " + signed
}
