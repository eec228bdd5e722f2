package appointments

import "github.com/shopspring/decimal"

// ReplaceAll returns the local collection for a freshly listed page. The page
// is authoritative; nothing of the previous collection survives.
func ReplaceAll(page Page) []Appointment {
	items := make([]Appointment, len(page.Results))
	copy(items, page.Results)
	return items
}

// ApplyCreated prepends a newly created appointment. An item with the same id
// already present is dropped so a create never shows up twice.
func ApplyCreated(items []Appointment, created Appointment) []Appointment {
	out := make([]Appointment, 0, len(items)+1)
	out = append(out, created)
	for _, item := range items {
		if item.ID == created.ID {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Summarize derives the summary from a list response. A missing count falls
// back to the number of results; a missing revenue total counts as zero.
func Summarize(page Page) Summary {
	total := len(page.Results)
	if page.Count != nil {
		total = *page.Count
	}
	revenue := decimal.Zero
	if page.CompletedTotalPrice.Valid {
		revenue = page.CompletedTotalPrice.Decimal
	}
	return Summary{
		TotalCount:       total,
		CompletedCount:   page.CompletedTotalCount,
		CompletedRevenue: revenue,
	}
}
