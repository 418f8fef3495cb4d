package transaction

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type identifies the ledger entry kind. Avances increase a CSS's debt
// towards CGTSIM, subventions and repayments decrease it, interets are the
// daily cost of open advances.
type Type string

const (
	TypeAvance     Type = "avance"
	TypeSubvention Type = "subvention"
	TypeInteret    Type = "interet"
)

// Types lists all ledger entry kinds in reporting order.
var Types = []Type{TypeAvance, TypeSubvention, TypeInteret}

func (t Type) IsValid() bool {
	switch t {
	case TypeAvance, TypeSubvention, TypeInteret:
		return true
	}
	return false
}

var (
	ErrInvalidAmount       = errors.New("invalid transaction amount")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction is an immutable ledger entry. There is no status field and no
// update path; corrections are entered as new rows with opposite sign.
type Transaction struct {
	ID          uuid.UUID
	CSSID       uuid.UUID
	CSSCode     string
	CSSName     string
	Type        Type
	Amount      decimal.Decimal
	Date        time.Time
	Reference   string
	Description string
	// RequestID links entries born from a fund request approval.
	RequestID *uuid.UUID
	// AdvanceID links avance and interet entries to their advance.
	AdvanceID *uuid.UUID
	// CreatedBy is nil for entries written by the accrual job.
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// Filter narrows a ledger listing. Nil fields match everything.
type Filter struct {
	CSSID *uuid.UUID
	Type  *Type
	From  *time.Time
	To    *time.Time
}

// SubsidyTotal sums the subvention entries of a ledger slice.
func SubsidyTotal(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Type == TypeSubvention {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// CSSBalance is one CSS's position in the ledger: per-type totals and the
// net balance (sum over all entries).
type CSSBalance struct {
	CSSID   uuid.UUID
	CSSCode string
	CSSName string
	ByType  map[Type]decimal.Decimal
	Balance decimal.Decimal
}

// BalanceByCSS recomputes per-CSS positions from the full entry list. The
// result is keyed and also ordered by CSS code for stable reporting.
func BalanceByCSS(transactions []Transaction) []CSSBalance {
	index := map[uuid.UUID]int{}
	var balances []CSSBalance
	for _, tx := range transactions {
		i, ok := index[tx.CSSID]
		if !ok {
			i = len(balances)
			index[tx.CSSID] = i
			byType := make(map[Type]decimal.Decimal, len(Types))
			for _, t := range Types {
				byType[t] = decimal.Zero
			}
			balances = append(balances, CSSBalance{
				CSSID:   tx.CSSID,
				CSSCode: tx.CSSCode,
				CSSName: tx.CSSName,
				ByType:  byType,
				Balance: decimal.Zero,
			})
		}
		balances[i].ByType[tx.Type] = balances[i].ByType[tx.Type].Add(tx.Amount)
		balances[i].Balance = balances[i].Balance.Add(tx.Amount)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].CSSCode < balances[j].CSSCode
	})
	return balances
}

// Stats summarizes the ledger: entry counts and amount totals per type.
type Stats struct {
	Count   int
	ByType  map[Type]int
	Amounts map[Type]decimal.Decimal
}

func LedgerStats(transactions []Transaction) Stats {
	stats := Stats{
		ByType:  make(map[Type]int, len(Types)),
		Amounts: make(map[Type]decimal.Decimal, len(Types)),
	}
	for _, t := range Types {
		stats.ByType[t] = 0
		stats.Amounts[t] = decimal.Zero
	}
	for _, tx := range transactions {
		stats.Count++
		stats.ByType[tx.Type]++
		stats.Amounts[tx.Type] = stats.Amounts[tx.Type].Add(tx.Amount)
	}
	return stats
}
