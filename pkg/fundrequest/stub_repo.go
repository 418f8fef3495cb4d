package fundrequest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type StubRepository struct {
	requests map[uuid.UUID]FundRequest
}

func NewStubRepository() *StubRepository {
	return &StubRepository{requests: map[uuid.UUID]FundRequest{}}
}

func (s *StubRepository) Store(_ context.Context, request FundRequest) (FundRequest, error) {
	s.requests[request.ID] = request
	return request, nil
}

func (s *StubRepository) List(_ context.Context, cssID *uuid.UUID) ([]FundRequest, error) {
	var requests []FundRequest
	for _, request := range s.requests {
		if cssID != nil && request.CSSID != *cssID {
			continue
		}
		requests = append(requests, request)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].DateRequested.After(requests[j].DateRequested)
	})
	return requests, nil
}

func (s *StubRepository) Get(_ context.Context, id uuid.UUID) (FundRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return FundRequest{}, ErrNotFound
	}
	return request, nil
}

func (s *StubRepository) UpdateStatus(_ context.Context, request FundRequest, expectedCurrent Status) (bool, error) {
	stored, ok := s.requests[request.ID]
	if !ok || stored.Status != expectedCurrent {
		return false, nil
	}
	s.requests[request.ID] = request
	return true, nil
}

func (s *StubRepository) NextReferenceSeq(_ context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("DEM-%d-", year)
	max := 0
	for _, request := range s.requests {
		if !strings.HasPrefix(request.Reference, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(request.Reference, prefix))
		if err == nil && seq > max {
			max = seq
		}
	}
	return max + 1, nil
}

func (s *StubRepository) Cleanup() {
	s.requests = map[uuid.UUID]FundRequest{}
}
