package precipitation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		amount float64
		want   Category
	}{
		{amount: 11, want: Heavy},
		{amount: 10.01, want: Heavy},
		{amount: 10, want: Moderate},
		{amount: 5.5, want: Moderate},
		{amount: 5, want: Light},
		{amount: 0, want: Light},
		{amount: -3, want: Light},
		{amount: math.NaN(), want: Light},
		{amount: math.Inf(1), want: Heavy},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.amount), "amount %v", tt.amount)
	}
}

func TestProjectionsPreserveOrderAndLength(t *testing.T) {
	result := sampleResult()

	chart := ToChartSeries(result)
	table := ToTableRows(result)
	timeline := ToTimelineEntries(result)
	list := ToListItems(result)

	require.Len(t, chart, len(result.Results))
	require.Len(t, table, len(result.Results))
	require.Len(t, timeline, len(result.Results))
	require.Len(t, list, len(result.Results))

	wantChart := []Point{
		{X: "2023-01-02", Y: 12},
		{X: "2023-01-09", Y: 7.5},
		{X: "2023-01-16", Y: 0},
	}
	if diff := cmp.Diff(wantChart, chart); diff != "" {
		t.Fatalf("chart series mismatch (-want +got):\n%s", diff)
	}

	wantRows := []Row{
		{Date: "2023-01-02", AmountMm: 12, Season: "winter", Category: Heavy},
		{Date: "2023-01-09", AmountMm: 7.5, Season: "winter", Category: Moderate},
		{Date: "2023-01-16", AmountMm: 0, Season: "winter", Category: Light},
	}
	if diff := cmp.Diff(wantRows, table); diff != "" {
		t.Fatalf("table rows mismatch (-want +got):\n%s", diff)
	}

	for i, entry := range timeline {
		require.Equal(t, wantRows[i], entry.Row)
	}
	require.Equal(t, SideLeft, timeline[0].Side)
	require.Equal(t, SideRight, timeline[1].Side)
	require.Equal(t, SideLeft, timeline[2].Side)

	require.Equal(t, []string{
		"2023-01-02 - 12 mm (winter)",
		"2023-01-09 - 7.5 mm (winter)",
		"2023-01-16 - 0 mm (winter)",
	}, list)
}

func TestProjectionsDoNotMutateInput(t *testing.T) {
	result := sampleResult()
	before := result.Clone()

	_ = ToChartSeries(result)
	_ = ToTableRows(result)
	_ = ToTimelineEntries(result)
	_ = ToListItems(result)

	require.Equal(t, before, result)
}

func TestProjectionsEmptyResult(t *testing.T) {
	for _, result := range []*Result{nil, {}} {
		require.NotNil(t, ToChartSeries(result))
		require.Empty(t, ToChartSeries(result))
		require.Empty(t, ToTableRows(result))
		require.Empty(t, ToTimelineEntries(result))
		require.Empty(t, ToListItems(result))
	}
}

func TestFormatDataset(t *testing.T) {
	pretty, err := FormatDataset(Dataset(`{"rows":[1,2],"name":"arpa"}`))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"rows\": [\n    1,\n    2\n  ],\n  \"name\": \"arpa\"\n}", pretty)

	_, err = FormatDataset(nil)
	require.Error(t, err)

	_, err = FormatDataset(Dataset(`{"rows":`))
	require.Error(t, err)
}

func TestParseDateKey(t *testing.T) {
	key, err := ParseDateKey(" 2023-01-01 ")
	require.NoError(t, err)
	require.Equal(t, DateKey("2023-01-01"), key)

	for _, bad := range []string{"", "2023/01/01", "2023-02-30", "01-01-2023", "2023-1-1"} {
		_, err := ParseDateKey(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestResultCloneIsIndependent(t *testing.T) {
	result := sampleResult()
	clone := result.Clone()
	clone.Results[0].Avg184D = 99

	require.Equal(t, 12.0, result.Results[0].Avg184D)
	require.Nil(t, (*Result)(nil).Clone())
}

func sampleResult() *Result {
	return &Result{
		TotalCount: 3,
		Results: []Record{
			{Date: "2023-01-02", Avg184D: 12, Stagione: "winter"},
			{Date: "2023-01-09", Avg184D: 7.5, Stagione: "winter"},
			{Date: "2023-01-16", Avg184D: 0, Stagione: "winter"},
		},
	}
}
