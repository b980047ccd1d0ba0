package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
)

// fakeStore is an in-memory companion table understanding the specifications
// the service uses.
type fakeStore struct {
	mu         sync.Mutex
	companions []*entity.Companion
	createErr  error
	findCalls  int
}

func (s *fakeStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: s}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) CompanionRepository() contract.CompanionRepository {
	return &fakeRepo{store: u.store}
}

type fakeRepo struct {
	store *fakeStore
}

func (r *fakeRepo) Create(ctx context.Context, companion *entity.Companion) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.createErr != nil {
		return r.store.createErr
	}
	c := *companion
	r.store.companions = append(r.store.companions, &c)
	return nil
}

func (r *fakeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Companion, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Companion, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.findCalls++

	matched := make([]*entity.Companion, 0)
	var page *specification.Pagination
	for _, c := range r.store.companions {
		ok := true
		for _, spec := range specs {
			switch sp := spec.(type) {
			case specification.ByID:
				ok = ok && c.Id == sp.ID
			case specification.BySubject:
				ok = ok && c.Subject == sp.Subject
			case specification.CompanionSearch:
				q := strings.ToLower(sp.Query)
				ok = ok && (strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Topic), q))
			case specification.AuthoredBy:
				ok = ok && c.AuthorId != nil && *c.AuthorId == sp.AuthorID
			case specification.Pagination:
				p := sp
				page = &p
			default:
				return nil, errors.New("fake repo: unsupported specification")
			}
		}
		if ok {
			cp := *c
			matched = append(matched, &cp)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if page != nil {
		if page.Offset >= len(matched) {
			return []*entity.Companion{}, nil
		}
		end := page.Offset + page.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[page.Offset:end]
	}
	return matched, nil
}

func (r *fakeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}
