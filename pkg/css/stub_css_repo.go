package css

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

type StubCSSRepo struct {
	data map[uuid.UUID]CSS
}

func NewStubCSSRepo() *StubCSSRepo {
	return &StubCSSRepo{data: map[uuid.UUID]CSS{}}
}

func (s *StubCSSRepo) Get(ctx context.Context, id uuid.UUID) (CSS, error) {
	c, ok := s.data[id]
	if !ok {
		return CSS{}, ErrCSSNotFound
	}
	return c, nil
}

func (s *StubCSSRepo) GetByCode(ctx context.Context, code string) (CSS, error) {
	for _, c := range s.data {
		if c.Code == code {
			return c, nil
		}
	}
	return CSS{}, ErrCSSNotFound
}

func (s *StubCSSRepo) List(ctx context.Context, activeOnly bool) ([]CSS, error) {
	list := make([]CSS, 0, len(s.data))
	for _, c := range s.data {
		if !activeOnly || c.Active {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (s *StubCSSRepo) Store(ctx context.Context, c CSS) (CSS, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.data[c.ID] = c
	return c, nil
}

func (s *StubCSSRepo) Cleanup() {
	s.data = map[uuid.UUID]CSS{}
}
