package models

import "testing"

func TestParsePeriodFilter(t *testing.T) {
	cases := []struct {
		token string
		want  PeriodFilter
	}{
		{"filter_7", PeriodWeek},
		{"filter_30", PeriodMonth},
		{"filter_365", PeriodYear},
		{"filter_custom", PeriodCustom},
		{"filter_90", PeriodUnknown},
		{"filter_", PeriodUnknown},
		{"something_else", PeriodUnknown},
		{"", PeriodUnknown},
		{"  filter_7  ", PeriodWeek},
	}

	for _, tc := range cases {
		if got := ParsePeriodFilter(tc.token); got != tc.want {
			t.Errorf("ParsePeriodFilter(%q) = %s, want %s", tc.token, got, tc.want)
		}
	}
}

func TestPeriodFilterDays(t *testing.T) {
	cases := []struct {
		filter PeriodFilter
		want   int
	}{
		{PeriodWeek, 7},
		{PeriodMonth, 30},
		{PeriodYear, 365},
		{PeriodCustom, 0},
		{PeriodUnknown, 0},
	}

	for _, tc := range cases {
		if got := tc.filter.Days(); got != tc.want {
			t.Errorf("Days(%s) = %d, want %d", tc.filter, got, tc.want)
		}
	}
}

func TestPeriodFilterCallbackRoundTrip(t *testing.T) {
	for _, filter := range []PeriodFilter{PeriodWeek, PeriodMonth, PeriodYear, PeriodCustom} {
		if got := ParsePeriodFilter(filter.CallbackData()); got != filter {
			t.Errorf("round trip for %s yielded %s", filter, got)
		}
	}
}

func TestParseAdminAction(t *testing.T) {
	if got := ParseAdminAction("admin_stats"); got != AdminStats {
		t.Errorf("expected AdminStats, got %s", got)
	}
	if got := ParseAdminAction("admin_nuke"); got != AdminUnknown {
		t.Errorf("expected AdminUnknown, got %s", got)
	}
	if !IsAdminToken("admin_export") {
		t.Error("admin_export should be recognized as an admin token")
	}
	if IsAdminToken("filter_7") {
		t.Error("filter_7 should not be recognized as an admin token")
	}
}

func TestCategoryBreakdownTotal(t *testing.T) {
	breakdown := CategoryBreakdown{
		{AnimalType: "Iguana", Count: 2},
		{AnimalType: "Parrot", Count: 3},
	}

	if got := breakdown.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
	if breakdown.Empty() {
		t.Error("breakdown should not be empty")
	}
	if !(CategoryBreakdown{}).Empty() {
		t.Error("zero-length breakdown should be empty")
	}
}
