package precipitation

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the only accepted request date format.
const DateLayout = "2006-01-02"

// DateKey is a calendar date in YYYY-MM-DD form.
type DateKey string

// ParseDateKey validates a user supplied date. Impossible calendar dates such
// as 2023-02-30 are rejected.
func ParseDateKey(value string) (DateKey, error) {
	trimmed := strings.TrimSpace(value)
	if _, err := time.Parse(DateLayout, trimmed); err != nil {
		return "", err
	}
	return DateKey(trimmed), nil
}

func (d DateKey) String() string {
	return string(d)
}

// Record is one week of averaged precipitation returned by the cache service.
type Record struct {
	Date     DateKey `json:"date"`
	Avg184D  float64 `json:"avg_184_d"`
	Stagione string  `json:"stagione"`
}

// Result is the decoded body of GET /precipitation.
type Result struct {
	TotalCount int      `json:"total_count,omitempty"`
	Results    []Record `json:"results"`
}

// Clone returns a copy that shares nothing with r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{TotalCount: r.TotalCount}
	if r.Results != nil {
		out.Results = make([]Record, len(r.Results))
		copy(out.Results, r.Results)
	}
	return out
}

// Dataset is the opaque document returned by GET /dataset.
type Dataset = json.RawMessage

// Category labels a precipitation amount for display.
type Category string

const (
	Heavy    Category = "Heavy"
	Moderate Category = "Moderate"
	Light    Category = "Light"
)

// Point is a single chart sample.
type Point struct {
	X DateKey `json:"x"`
	Y float64 `json:"y"`
}

// Row is shared by the table and timeline views.
type Row struct {
	Date     DateKey  `json:"date"`
	AmountMm float64  `json:"amountMm"`
	Season   string   `json:"season"`
	Category Category `json:"category"`
}

// Side positions a timeline entry in the alternating layout.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// TimelineEntry is a Row placed on one side of a chronological timeline.
type TimelineEntry struct {
	Row
	Side Side `json:"side"`
}
