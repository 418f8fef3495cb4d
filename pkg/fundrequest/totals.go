package fundrequest

import "github.com/shopspring/decimal"

// Aggregation is pure recomputation over immutable snapshots. Nothing in this
// package caches a derived total.

// DayTotal sums the line amounts of a single day. An empty day totals zero.
func DayTotal(day RequestDay) decimal.Decimal {
	total := decimal.Zero
	for _, item := range day.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// Total sums all days of a request.
func Total(r FundRequest) decimal.Decimal {
	total := decimal.Zero
	for _, day := range r.Days {
		total = total.Add(DayTotal(day))
	}
	return total
}

// TotalsByCategory maps every category to the sum of its line amounts across
// all days. All four categories are always present, zero when unused.
func TotalsByCategory(r FundRequest) map[Category]decimal.Decimal {
	totals := make(map[Category]decimal.Decimal, len(Categories))
	for _, c := range Categories {
		totals[c] = decimal.Zero
	}
	for _, day := range r.Days {
		for _, item := range day.Items {
			totals[item.Category] = totals[item.Category].Add(item.Amount)
		}
	}
	return totals
}

// ItemCount counts the lines across all days of a request.
func ItemCount(r FundRequest) int {
	count := 0
	for _, day := range r.Days {
		count += len(day.Items)
	}
	return count
}

// Stats summarizes a collection of requests. The same shape serves a single
// CSS's view and the reviewer's global view.
type Stats struct {
	Total       int
	ByStatus    map[Status]int
	TotalAmount decimal.Decimal
}

func DashboardStats(requests []FundRequest) Stats {
	stats := Stats{
		ByStatus: map[Status]int{
			StatusPending:  0,
			StatusApproved: 0,
			StatusVersed:   0,
			StatusRejected: 0,
		},
		TotalAmount: decimal.Zero,
	}
	for _, r := range requests {
		stats.Total++
		stats.ByStatus[r.Status]++
		stats.TotalAmount = stats.TotalAmount.Add(Total(r))
	}
	return stats
}
