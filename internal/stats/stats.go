// Package stats derives aggregate statistics from a persisted dataset.
package stats

import (
	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// unknownOrganization buckets records whose organization field is empty.
const unknownOrganization = "Unknown"

// Compute aggregates one dataset: total bookings, per-organization,
// per-status and per-source counts, and total revenue. Unparsable prices
// contribute zero revenue.
func Compute(records []domain.BookingRecord) domain.Stats {
	stats := domain.Stats{
		TotalBookings: len(records),
		Organizations: make(map[string]int),
		StatusCounts:  make(map[string]int),
		SourceCounts:  make(map[string]int),
	}

	for _, record := range records {
		org := record.Organization
		if org == "" {
			org = unknownOrganization
		}
		stats.Organizations[org]++
		stats.StatusCounts[record.Status]++
		stats.SourceCounts[record.Source]++
		stats.TotalRevenue += domain.ParsePrice(record.Price)
	}
	return stats
}
