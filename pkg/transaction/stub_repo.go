package transaction

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type StubRepository struct {
	transactions []Transaction
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) Store(_ context.Context, tx Transaction) (Transaction, error) {
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *StubRepository) List(_ context.Context, filter Filter) ([]Transaction, error) {
	var result []Transaction
	for _, tx := range s.transactions {
		if filter.CSSID != nil && tx.CSSID != *filter.CSSID {
			continue
		}
		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *StubRepository) NextSubsidySeq(_ context.Context, year int, month int) (int, error) {
	prefix := fmt.Sprintf("SUB-%d-%02d-", year, month)
	max := 0
	for _, tx := range s.transactions {
		if !strings.HasPrefix(tx.Reference, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(tx.Reference, prefix))
		if err == nil && seq > max {
			max = seq
		}
	}
	return max + 1, nil
}

func (s *StubRepository) Cleanup() {
	s.transactions = nil
}
