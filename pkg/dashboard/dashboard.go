package dashboard

import (
	"sort"
	"time"

	"github.com/cgtsim/cgtsim/pkg/advance"
	"github.com/cgtsim/cgtsim/pkg/css"
	"github.com/cgtsim/cgtsim/pkg/fundrequest"
	"github.com/shopspring/decimal"
)

// CSSStats is the regional unit's dashboard: its own requests summarized.
type CSSStats struct {
	TotalRequests int
	ByStatus      map[fundrequest.Status]int
	TotalAmount   decimal.Decimal
	// VersedAmount is the part of TotalAmount already paid out.
	VersedAmount decimal.Decimal
}

// GlobalStats is the central authority's dashboard.
type GlobalStats struct {
	Requests         fundrequest.Stats
	ActiveCSSCount   int
	ActiveAdvances   int
	AdvancePrincipal decimal.Decimal
	AccruedInterest  decimal.Decimal
}

// TreasuryDay is one upcoming disbursement bucket: every approved request
// day falling on this date, summed.
type TreasuryDay struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Treasury is the liquidity outlook: day-by-day detail for the coming week
// and the total need over the coming month.
type Treasury struct {
	Next7Days   []TreasuryDay
	Total30Days decimal.Decimal
}

// BuildCSSStats recomputes a unit dashboard from its request list.
func BuildCSSStats(requests []fundrequest.FundRequest) CSSStats {
	stats := fundrequest.DashboardStats(requests)
	versed := decimal.Zero
	for _, r := range requests {
		if r.Status == fundrequest.StatusVersed {
			versed = versed.Add(fundrequest.Total(r))
		}
	}
	return CSSStats{
		TotalRequests: stats.Total,
		ByStatus:      stats.ByStatus,
		TotalAmount:   stats.TotalAmount,
		VersedAmount:  versed,
	}
}

// BuildGlobalStats recomputes the central dashboard from full listings.
func BuildGlobalStats(requests []fundrequest.FundRequest, advances []advance.Advance, units []css.CSS) GlobalStats {
	stats := GlobalStats{
		Requests:         fundrequest.DashboardStats(requests),
		AdvancePrincipal: decimal.Zero,
		AccruedInterest:  decimal.Zero,
	}
	for _, unit := range units {
		if unit.Active {
			stats.ActiveCSSCount++
		}
	}
	for _, a := range advances {
		if a.Status != advance.StatusActive {
			continue
		}
		stats.ActiveAdvances++
		stats.AdvancePrincipal = stats.AdvancePrincipal.Add(a.Principal)
		stats.AccruedInterest = stats.AccruedInterest.Add(a.AccruedInterest)
	}
	return stats
}

// BuildTreasury sums the day buckets of approved requests: per-date detail
// for the 7 days starting at asOf, and a single total over 30 days. Both
// windows are half-open, [start, start+n).
func BuildTreasury(requests []fundrequest.FundRequest, asOf time.Time) Treasury {
	start := toDay(asOf)
	weekEnd := start.AddDate(0, 0, 7)
	monthEnd := start.AddDate(0, 0, 30)

	byDate := map[time.Time]decimal.Decimal{}
	total := decimal.Zero
	for _, r := range requests {
		if r.Status != fundrequest.StatusApproved {
			continue
		}
		for _, day := range r.Days {
			date := toDay(day.Date)
			if date.Before(start) || !date.Before(monthEnd) {
				continue
			}
			amount := fundrequest.DayTotal(day)
			total = total.Add(amount)
			if date.Before(weekEnd) {
				if _, ok := byDate[date]; !ok {
					byDate[date] = decimal.Zero
				}
				byDate[date] = byDate[date].Add(amount)
			}
		}
	}

	detail := make([]TreasuryDay, 0, len(byDate))
	for date, amount := range byDate {
		detail = append(detail, TreasuryDay{Date: date, Amount: amount})
	}
	sort.Slice(detail, func(i, j int) bool { return detail[i].Date.Before(detail[j].Date) })

	return Treasury{Next7Days: detail, Total30Days: total}
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
