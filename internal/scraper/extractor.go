package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// minCells is the number of columns a bookings row must carry. Shorter rows
// are filler or layout rows and are discarded, not errored.
const minCells = 8

// ExtractRecords parses one table snapshot into booking records attributed
// to the given organization. Cell positions 0-7 map to bookingId, customer
// block, startDateTime, duration, resources, price, source and status; the
// customer block holds up to three spans (name, phone, email). Row order is
// preserved. An empty or unparsable snapshot yields no records.
func ExtractRecords(tableHTML, organization string) []domain.BookingRecord {
	if strings.TrimSpace(tableHTML) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return nil
	}

	if organization == "" {
		organization = domain.DefaultOrganization
	}

	var records []domain.BookingRecord
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minCells {
			return
		}
		cell := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		spans := cells.Eq(1).Find("div.flex.flex-col span")
		if spans.Length() == 0 {
			spans = cells.Eq(1).Find("span")
		}
		span := func(i int) string {
			if i >= spans.Length() {
				return ""
			}
			return strings.TrimSpace(spans.Eq(i).Text())
		}

		records = append(records, domain.BookingRecord{
			Organization: organization,
			BookingID:    cell(0),
			Customer: domain.Customer{
				Name:  span(0),
				Phone: span(1),
				Email: span(2),
			},
			StartDateTime: cell(2),
			Duration:      cell(3),
			Resources:     cell(4),
			Price:         cell(5),
			Source:        cell(6),
			Status:        cell(7),
		})
	})
	return records
}
