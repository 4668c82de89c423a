package domain

import (
	"strconv"
	"strings"
	"time"
)

// Customer holds the contact sub-values extracted from the customer cell.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// BookingRecord is one extracted table row, attributed to one organization.
// The JSON shape is the wire format expected by the spreadsheet webhook.
type BookingRecord struct {
	Organization  string   `json:"organization"`
	BookingID     string   `json:"bookingId"`
	Customer      Customer `json:"customer"`
	StartDateTime string   `json:"startDateTime"`
	Duration      string   `json:"duration"`
	Resources     string   `json:"resources"`
	Price         string   `json:"price"`
	Source        string   `json:"source"`
	Status        string   `json:"status"`
}

// Organization is one configured crawl target.
type Organization struct {
	Name string `mapstructure:"name" json:"name"`
	URL  string `mapstructure:"url" json:"url"`
}

// RunStatus is an atomic snapshot of the run state machine.
type RunStatus struct {
	IsRunning       bool       `json:"isRunning"`
	LastRunAt       *time.Time `json:"lastRunAt"`
	LastError       string     `json:"lastError,omitempty"`
	NextScheduledAt time.Time  `json:"nextScheduledAt"`
}

// RunRecord is one archived run outcome.
type RunRecord struct {
	ID         int64      `json:"id,omitempty"`
	Trigger    string     `json:"trigger"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Outcome    string     `json:"outcome"` // "success" or "failure"
	Records    int        `json:"records"`
	Error      string     `json:"error,omitempty"`
}

// Stats aggregates a delivered dataset for the /api/stats endpoint.
type Stats struct {
	TotalBookings int            `json:"totalBookings"`
	Organizations map[string]int `json:"organizations"`
	StatusCounts  map[string]int `json:"statusCounts"`
	SourceCounts  map[string]int `json:"sourceCounts"`
	TotalRevenue  float64        `json:"totalRevenue"`
}

// DefaultOrganization is the fallback group when a label matches nothing.
const DefaultOrganization = "Kepong"

// ClassifyOrganization maps a free-form organization label onto one of the
// known groups by substring match, falling back to DefaultOrganization.
func ClassifyOrganization(label string) string {
	switch {
	case strings.Contains(label, "Seri Kembangan"):
		return "Seri Kembangan"
	case strings.Contains(label, "Kepong"):
		return "Kepong"
	case strings.Contains(label, "Puchong"), strings.Contains(label, "Kinrara"):
		return "Puchong"
	default:
		return DefaultOrganization
	}
}

// currencyPrefix is the prefix carried by every price cell in the source.
const currencyPrefix = "RM"

// ParsePrice strips the currency prefix and parses the remaining decimal
// amount. Empty or unparsable prices count as zero.
func ParsePrice(price string) float64 {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(price), currencyPrefix))
	if trimmed == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return amount
}
