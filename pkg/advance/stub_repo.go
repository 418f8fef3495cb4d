package advance

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type accrualKey struct {
	advanceID uuid.UUID
	date      string
}

type StubRepository struct {
	advances map[uuid.UUID]Advance
	accruals map[accrualKey]decimal.Decimal
}

func NewStubRepository() *StubRepository {
	return &StubRepository{
		advances: map[uuid.UUID]Advance{},
		accruals: map[accrualKey]decimal.Decimal{},
	}
}

func (s *StubRepository) Store(_ context.Context, a Advance) (Advance, error) {
	s.advances[a.ID] = a
	return a, nil
}

func (s *StubRepository) Get(_ context.Context, id uuid.UUID) (Advance, error) {
	a, ok := s.advances[id]
	if !ok {
		return Advance{}, ErrAdvanceNotFound
	}
	return a, nil
}

func (s *StubRepository) List(_ context.Context, cssID *uuid.UUID, activeOnly bool) ([]Advance, error) {
	var advances []Advance
	for _, a := range s.advances {
		if cssID != nil && a.CSSID != *cssID {
			continue
		}
		if activeOnly && a.Status != StatusActive {
			continue
		}
		advances = append(advances, a)
	}
	sort.Slice(advances, func(i, j int) bool {
		return advances[i].StartDate.After(advances[j].StartDate)
	})
	return advances, nil
}

func (s *StubRepository) NextReferenceSeq(_ context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("AVN-%d-", year)
	max := 0
	for _, a := range s.advances {
		if !strings.HasPrefix(a.Reference, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(a.Reference, prefix))
		if err == nil && seq > max {
			max = seq
		}
	}
	return max + 1, nil
}

func (s *StubRepository) RecordDailyInterest(_ context.Context, advanceID uuid.UUID, date time.Time, amount decimal.Decimal) (bool, error) {
	key := accrualKey{advanceID: advanceID, date: date.Format("2006-01-02")}
	if _, exists := s.accruals[key]; exists {
		return false, nil
	}
	a, ok := s.advances[advanceID]
	if !ok {
		return false, ErrAdvanceNotFound
	}
	s.accruals[key] = amount
	a.AccruedInterest = a.AccruedInterest.Add(amount)
	accrualDate := date
	a.LastAccrualDate = &accrualDate
	s.advances[advanceID] = a
	return true, nil
}

func (s *StubRepository) Close(_ context.Context, id uuid.UUID, date time.Time) (bool, error) {
	a, ok := s.advances[id]
	if !ok || a.Status != StatusActive {
		return false, nil
	}
	a.Status = StatusClosed
	closeDate := date
	a.EndDateActual = &closeDate
	s.advances[id] = a
	return true, nil
}

func (s *StubRepository) Cleanup() {
	s.advances = map[uuid.UUID]Advance{}
	s.accruals = map[accrualKey]decimal.Decimal{}
}
