package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopSellers is the number of sellers listed in a Summary.
const TopSellers = 10

// Count is a name with its number of items.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary describes the content of a loaded report.
type Summary struct {
	Rows        int             `json:"rows"`
	UniqueCodes int             `json:"unique_codes"`
	Blank       int             `json:"blank"`
	Duplicates  int             `json:"duplicates"`
	Errors      int             `json:"errors"`
	Columns     map[Role]string `json:"columns"`
	Branches    []Count         `json:"branches"`
	TopSellers  []Count         `json:"top_sellers"`

	PrizeTotal   decimal.Decimal `json:"prize_total"`
	PrizeAverage decimal.Decimal `json:"prize_average"`
	PrizeMax     decimal.Decimal `json:"prize_max"`
	PrizeMin     decimal.Decimal `json:"prize_min"`
}

// Summarize computes the report summary.
func Summarize(rep *Report) Summary {
	s := Summary{
		Rows:        rep.Len() + rep.Blank + rep.Duplicates + len(rep.Errors),
		UniqueCodes: rep.Len(),
		Blank:       rep.Blank,
		Duplicates:  rep.Duplicates,
		Errors:      len(rep.Errors),
		Columns:     rep.Columns,
	}

	branches := make(map[string]int)
	sellers := make(map[string]int)
	for i, item := range rep.items {
		if item.Branch != "" {
			branches[item.Branch]++
		}
		seller := item.SellerName
		if seller == "" {
			seller = item.SellerID
		}
		if seller != "" {
			sellers[seller]++
		}

		prize := decimal.NewFromFloat(item.PrizeAmount)
		s.PrizeTotal = s.PrizeTotal.Add(prize)
		if i == 0 || prize.GreaterThan(s.PrizeMax) {
			s.PrizeMax = prize
		}
		if i == 0 || prize.LessThan(s.PrizeMin) {
			s.PrizeMin = prize
		}
	}
	if n := rep.Len(); n > 0 {
		s.PrizeAverage = s.PrizeTotal.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	s.Branches = rankCounts(branches, 0)
	s.TopSellers = rankCounts(sellers, TopSellers)
	return s
}

// rankCounts orders counts from highest to lowest, ties by name. A limit of 0
// keeps every entry.
func rankCounts(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
