package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/pkg/companionform"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

type fakeEvents struct {
	created []*entity.Companion
}

func (f *fakeEvents) PublishCompanionCreated(ctx context.Context, companion *entity.Companion) {
	f.created = append(f.created, companion)
}

type serviceFixture struct {
	store  *fakeStore
	pub    *fakePublisher
	events *fakeEvents
	cache  *memory.ListingCache
	svc    ICompanionService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		store:  &fakeStore{},
		pub:    &fakePublisher{},
		events: &fakeEvents{},
		cache:  memory.NewListingCache(time.Minute),
	}
	f.svc = NewCompanionService(f.store, f.pub, f.events, f.cache, "all", logger.NewNopLogger())
	return f
}

func (f *serviceFixture) seed(subject, name, topic string, age time.Duration) *entity.Companion {
	c := &entity.Companion{
		Id:        uuid.New(),
		Name:      name,
		Subject:   subject,
		Topic:     topic,
		Voice:     entity.VoiceFemale,
		Style:     entity.StyleCasual,
		Duration:  15,
		CreatedAt: time.Now().Add(-age),
	}
	f.store.companions = append(f.store.companions, c)
	return c
}

func validRecord() companionform.Record {
	return companionform.Record{
		Name:     " Neura ",
		Subject:  "science",
		Topic:    "Black holes",
		Voice:    "female",
		Style:    "formal",
		Duration: 20,
	}
}

func TestCompanionService_Create(t *testing.T) {
	t.Run("stores companion and publishes", func(t *testing.T) {
		f := newServiceFixture()
		author := uuid.New()

		c, err := f.svc.Create(context.Background(), &author, validRecord())
		require.NoError(t, err)
		require.NotNil(t, c)

		assert.NotEqual(t, uuid.Nil, c.Id)
		assert.Equal(t, "Neura", c.Name)
		assert.Equal(t, 20, c.Duration)
		assert.Equal(t, &author, c.AuthorId)
		require.Len(t, f.store.companions, 1)

		require.Len(t, f.pub.payloads, 1)
		var msg dto.PublishCompanionCreatedMessage
		require.NoError(t, json.Unmarshal(f.pub.payloads[0], &msg))
		assert.Equal(t, c.Id, msg.CompanionId)
		assert.Equal(t, "science", msg.Subject)

		require.Len(t, f.events.created, 1)
		assert.Equal(t, c.Id, f.events.created[0].Id)
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		f := newServiceFixture()
		f.store.createErr = errors.New("db down")

		c, err := f.svc.Create(context.Background(), nil, validRecord())
		assert.Nil(t, c)
		assert.ErrorIs(t, err, f.store.createErr)
		assert.Empty(t, f.pub.payloads)
		assert.Empty(t, f.events.created)
	})

	t.Run("publish failure does not fail create and flushes cache", func(t *testing.T) {
		f := newServiceFixture()
		f.pub.err = errors.New("bus closed")
		_, err := f.svc.List(context.Background(), dto.ListCompanionsQuery{})
		require.NoError(t, err)
		require.Equal(t, 1, f.cache.Len())

		c, err := f.svc.Create(context.Background(), nil, validRecord())
		require.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, 0, f.cache.Len())
	})
}

func TestCompanionService_CreateStoresSubjectInEnumerationForm(t *testing.T) {
	f := newServiceFixture()
	record := validRecord()
	record.Subject = " MATHS "

	c, err := f.svc.Create(context.Background(), nil, record)
	require.NoError(t, err)
	assert.Equal(t, "maths", c.Subject)

	var msg dto.PublishCompanionCreatedMessage
	require.Len(t, f.pub.payloads, 1)
	require.NoError(t, json.Unmarshal(f.pub.payloads[0], &msg))
	assert.Equal(t, "maths", msg.Subject)

	for _, subject := range []string{"maths", "Maths"} {
		res, err := f.svc.List(context.Background(), dto.ListCompanionsQuery{Subject: subject})
		require.NoError(t, err)
		require.Len(t, res.Items, 1, subject)
		assert.Equal(t, c.Id, res.Items[0].Id)
		assert.Equal(t, "maths", res.Selection)
	}
}

func TestCompanionService_Show(t *testing.T) {
	f := newServiceFixture()
	seeded := f.seed("maths", "Countsy", "Derivatives", time.Hour)

	t.Run("found", func(t *testing.T) {
		res, err := f.svc.Show(context.Background(), seeded.Id)
		require.NoError(t, err)
		assert.Equal(t, seeded.Id, res.Id)
		assert.Equal(t, "Countsy", res.Name)
	})

	t.Run("missing maps to not found", func(t *testing.T) {
		res, err := f.svc.Show(context.Background(), uuid.New())
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrCompanionNotFound)
		assert.ErrorIs(t, err, serverutils.ErrNotFound)
	})
}

func TestCompanionService_List(t *testing.T) {
	f := newServiceFixture()
	f.seed("maths", "Countsy", "Derivatives", 3*time.Hour)
	f.seed("science", "Neura", "Black holes", 2*time.Hour)
	f.seed("science", "Lumi", "Photosynthesis", time.Hour)

	tests := []struct {
		name          string
		query         dto.ListCompanionsQuery
		wantNames     []string
		wantSelection string
		wantTotal     int64
	}{
		{
			name:          "no subject lists everything newest first",
			query:         dto.ListCompanionsQuery{},
			wantNames:     []string{"Lumi", "Neura", "Countsy"},
			wantSelection: "all",
			wantTotal:     3,
		},
		{
			name:          "sentinel subject means no filter",
			query:         dto.ListCompanionsQuery{Subject: "all"},
			wantNames:     []string{"Lumi", "Neura", "Countsy"},
			wantSelection: "all",
			wantTotal:     3,
		},
		{
			name:          "subject filter",
			query:         dto.ListCompanionsQuery{Subject: "science"},
			wantNames:     []string{"Lumi", "Neura"},
			wantSelection: "science",
			wantTotal:     2,
		},
		{
			name:          "topic search is case insensitive",
			query:         dto.ListCompanionsQuery{Topic: "BLACK"},
			wantNames:     []string{"Neura"},
			wantSelection: "all",
			wantTotal:     1,
		},
		{
			name:          "pagination",
			query:         dto.ListCompanionsQuery{Page: 2, Limit: 2},
			wantNames:     []string{"Countsy"},
			wantSelection: "all",
			wantTotal:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.List(context.Background(), tt.query)
			require.NoError(t, err)

			names := make([]string, 0, len(res.Items))
			for _, item := range res.Items {
				names = append(names, item.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantSelection, res.Selection)
			assert.Equal(t, tt.wantTotal, res.Total)
		})
	}
}

func TestCompanionService_ListByAuthor(t *testing.T) {
	f := newServiceFixture()
	author := uuid.New()
	mine := f.seed("maths", "Countsy", "Derivatives", time.Hour)
	mine.AuthorId = &author
	f.seed("maths", "Other", "Integrals", 2*time.Hour)

	everyone, err := f.svc.List(context.Background(), dto.ListCompanionsQuery{Subject: "maths"})
	require.NoError(t, err)
	assert.Len(t, everyone.Items, 2)

	res, err := f.svc.List(context.Background(), dto.ListCompanionsQuery{Subject: "maths", AuthorId: &author})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, mine.Id, res.Items[0].Id)
	assert.Equal(t, int64(1), res.Total)
}

func TestCompanionService_ListDefaultsAndCache(t *testing.T) {
	f := newServiceFixture()
	f.seed("coding", "Bytey", "Go channels", time.Hour)

	res, err := f.svc.List(context.Background(), dto.ListCompanionsQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 100, res.Limit)

	calls := f.store.findCalls
	again, err := f.svc.List(context.Background(), dto.ListCompanionsQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Same(t, res, again)
	assert.Equal(t, calls, f.store.findCalls, "second listing should be served from cache")

	// "all" and "" normalize to the same cache entry
	_, err = f.svc.List(context.Background(), dto.ListCompanionsQuery{Subject: "all", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, calls, f.store.findCalls)
}

func TestNewFormCreator(t *testing.T) {
	t.Run("returns entity id", func(t *testing.T) {
		f := newServiceFixture()
		creator := NewFormCreator(f.svc, nil)

		ent, err := creator.Create(context.Background(), validRecord())
		require.NoError(t, err)
		require.NotNil(t, ent)
		_, parseErr := uuid.Parse(ent.ID)
		assert.NoError(t, parseErr)
	})

	t.Run("propagates error", func(t *testing.T) {
		f := newServiceFixture()
		f.store.createErr = errors.New("db down")
		creator := NewFormCreator(f.svc, nil)

		ent, err := creator.Create(context.Background(), validRecord())
		assert.Nil(t, ent)
		assert.Error(t, err)
	})
}
