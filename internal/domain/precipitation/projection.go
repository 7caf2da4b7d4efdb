package precipitation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Classify maps an amount in millimetres to a display category. NaN and
// negative values fall through to Light.
func Classify(amountMm float64) Category {
	switch {
	case amountMm > 10:
		return Heavy
	case amountMm > 5:
		return Moderate
	default:
		return Light
	}
}

// ToChartSeries returns one point per record in input order.
func ToChartSeries(result *Result) []Point {
	records := recordsOf(result)
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		points = append(points, Point{X: rec.Date, Y: rec.Avg184D})
	}
	return points
}

// ToTableRows returns one classified row per record in input order.
func ToTableRows(result *Result) []Row {
	records := recordsOf(result)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}
	return rows
}

// ToTimelineEntries returns the table rows alternating left and right,
// starting on the left.
func ToTimelineEntries(result *Result) []TimelineEntry {
	records := recordsOf(result)
	entries := make([]TimelineEntry, 0, len(records))
	for i, rec := range records {
		side := SideLeft
		if i%2 == 1 {
			side = SideRight
		}
		entries = append(entries, TimelineEntry{Row: toRow(rec), Side: side})
	}
	return entries
}

// ToListItems renders each record as "<date> - <amount> mm (<season>)".
func ToListItems(result *Result) []string {
	records := recordsOf(result)
	items := make([]string, 0, len(records))
	for _, rec := range records {
		items = append(items, fmt.Sprintf("%s - %s mm (%s)", rec.Date, strconv.FormatFloat(rec.Avg184D, 'f', -1, 64), rec.Stagione))
	}
	return items
}

// FormatDataset pretty prints the dataset with two space indentation.
func FormatDataset(dataset Dataset) (string, error) {
	if len(dataset) == 0 {
		return "", errors.New("dataset is empty")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, dataset, "", "  "); err != nil {
		return "", fmt.Errorf("indent dataset: %w", err)
	}
	return buf.String(), nil
}

func toRow(rec Record) Row {
	return Row{
		Date:     rec.Date,
		AmountMm: rec.Avg184D,
		Season:   rec.Stagione,
		Category: Classify(rec.Avg184D),
	}
}

func recordsOf(result *Result) []Record {
	if result == nil {
		return nil
	}
	return result.Results
}
