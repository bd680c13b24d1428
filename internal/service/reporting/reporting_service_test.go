package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/exovet/supportbot/internal/domain/models"
	"github.com/exovet/supportbot/internal/repository/sqlite"
)

func setupService(t *testing.T, now time.Time) (*Service, *sqlite.SQLiteRepository) {
	t.Helper()

	gdb, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Consultation{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := sqlite.NewWithDB(gdb)
	t.Cleanup(func() { _ = repo.Close() })

	svc := NewService(repo, nil).WithClock(func() time.Time { return now })
	return svc, repo
}

func seed(t *testing.T, repo *sqlite.SQLiteRepository, userID int64, animal string, date time.Time, duration int) {
	t.Helper()

	record := models.Consultation{
		UserID:           userID,
		AnimalType:       animal,
		ConsultationDate: date,
		DurationMinutes:  &duration,
	}
	if err := repo.Insert(context.Background(), &record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
}

func TestFixedWindowResolution(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, now)

	cases := []struct {
		filter models.PeriodFilter
		days   int
	}{
		{models.PeriodWeek, 7},
		{models.PeriodMonth, 30},
		{models.PeriodYear, 365},
	}

	for _, tc := range cases {
		window, err := svc.FixedWindow(tc.filter)
		if err != nil {
			t.Fatalf("FixedWindow(%s) returned error: %v", tc.filter, err)
		}
		if !window.End.Equal(now) {
			t.Errorf("window end = %v, want %v", window.End, now)
		}
		if !window.Start.Equal(now.AddDate(0, 0, -tc.days)) {
			t.Errorf("window start = %v, want now minus %d days", window.Start, tc.days)
		}
	}
}

func TestFixedWindowRejectsNonFixedFilters(t *testing.T) {
	svc, _ := setupService(t, time.Now())

	for _, filter := range []models.PeriodFilter{models.PeriodCustom, models.PeriodUnknown} {
		if _, err := svc.FixedWindow(filter); err == nil {
			t.Errorf("FixedWindow(%s) should fail", filter)
		}
	}
}

func TestCustomWindowSpansWholeEndDay(t *testing.T) {
	svc, _ := setupService(t, time.Now())

	window, err := svc.CustomWindow("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("CustomWindow returned error: %v", err)
	}

	wantStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	if !window.Start.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", window.Start, wantStart)
	}
	if !window.End.Equal(wantEnd) {
		t.Errorf("window end = %v, want %v", window.End, wantEnd)
	}
}

func TestParseDateValidation(t *testing.T) {
	if _, err := ParseDate("2024-02-29"); err != nil {
		t.Errorf("leap date 2024-02-29 should parse, got %v", err)
	}
	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Error("impossible date 2024-02-30 should be rejected")
	}
	if _, err := ParseDate("31-01-2024"); err == nil {
		t.Error("wrong format should be rejected")
	}
	if _, err := ParseDate("yesterday"); err == nil {
		t.Error("free text should be rejected")
	}
}

func TestRoundDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{25.0, 25.0},
		{2.25, 2.3},
		{2.24, 2.2},
		{19.96, 20.0},
	}

	for _, tc := range cases {
		if got := RoundDuration(tc.in); got != tc.want {
			t.Errorf("RoundDuration(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	// Rounding an already-rounded value must not move it again.
	for _, v := range []float64{0.0, 2.3, 25.0, 19.9} {
		if got := RoundDuration(RoundDuration(v)); got != RoundDuration(v) {
			t.Errorf("rounding is not idempotent for %v", v)
		}
	}
}

func TestSummaryOnEmptyStore(t *testing.T) {
	svc, _ := setupService(t, time.Now())

	stats, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if stats.TotalConsultations != 0 || stats.UniqueUsers != 0 || stats.AvgDuration != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
	if stats.LastMonthCount != 0 || stats.LastMonthAvg != 0 {
		t.Errorf("expected zeroed last-month stats, got %+v", stats)
	}
}

func TestSummaryUsesFixedLastMonthWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)

	seed(t, repo, 1001, "Iguana", now.AddDate(0, 0, -5), 20)
	seed(t, repo, 1002, "Parrot", now.AddDate(0, 0, -45), 40)

	stats, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if stats.TotalConsultations != 2 {
		t.Errorf("TotalConsultations = %d, want 2", stats.TotalConsultations)
	}
	if stats.UniqueUsers != 2 {
		t.Errorf("UniqueUsers = %d, want 2", stats.UniqueUsers)
	}
	if stats.AvgDuration != 30.0 {
		t.Errorf("AvgDuration = %v, want 30.0", stats.AvgDuration)
	}
	if stats.LastMonthCount != 1 {
		t.Errorf("LastMonthCount = %d, want 1 (45-day-old record excluded)", stats.LastMonthCount)
	}
	if stats.LastMonthAvg != 20.0 {
		t.Errorf("LastMonthAvg = %v, want 20.0", stats.LastMonthAvg)
	}
}

func TestWindowReportSevenDayScenario(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)

	seed(t, repo, 1001, "Iguana", now.AddDate(0, 0, -1), 20)
	seed(t, repo, 1002, "Iguana", now.AddDate(0, 0, -1), 30)
	seed(t, repo, 1003, "Parrot", now.AddDate(0, 0, -40), 15)

	window, err := svc.FixedWindow(models.PeriodWeek)
	if err != nil {
		t.Fatalf("FixedWindow returned error: %v", err)
	}

	breakdown, avg, err := svc.WindowReport(context.Background(), window)
	if err != nil {
		t.Fatalf("WindowReport returned error: %v", err)
	}

	if len(breakdown) != 1 {
		t.Fatalf("breakdown has %d categories, want 1: %v", len(breakdown), breakdown)
	}
	if breakdown[0].AnimalType != "Iguana" || breakdown[0].Count != 2 {
		t.Errorf("unexpected breakdown entry: %+v", breakdown[0])
	}
	if avg != 25.0 {
		t.Errorf("average duration = %v, want 25.0", avg)
	}
}

func TestWindowReportEmptyWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)

	seed(t, repo, 1001, "Iguana", now.AddDate(0, 0, -1), 20)

	window, err := svc.CustomWindow("2020-01-01", "2020-01-31")
	if err != nil {
		t.Fatalf("CustomWindow returned error: %v", err)
	}

	breakdown, avg, err := svc.WindowReport(context.Background(), window)
	if err != nil {
		t.Fatalf("WindowReport returned error: %v", err)
	}
	if !breakdown.Empty() {
		t.Errorf("expected empty breakdown, got %v", breakdown)
	}
	if avg != 0 {
		t.Errorf("average for empty window = %v, want 0", avg)
	}
}

func TestWindowReportIncludesWholeEndDay(t *testing.T) {
	svc, repo := setupService(t, time.Now())

	seed(t, repo, 1001, "Iguana", time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC), 20)

	window, err := svc.CustomWindow("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("CustomWindow returned error: %v", err)
	}

	breakdown, _, err := svc.WindowReport(context.Background(), window)
	if err != nil {
		t.Fatalf("WindowReport returned error: %v", err)
	}
	if breakdown.Total() != 1 {
		t.Errorf("record on the evening of the end date should be included, got %v", breakdown)
	}
}

func TestSummaryText(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := setupService(t, now)

	seed(t, repo, 1001, "Iguana", now.AddDate(0, 0, -2), 25)

	digest, err := svc.SummaryText(context.Background())
	if err != nil {
		t.Fatalf("SummaryText returned error: %v", err)
	}

	for _, want := range []string{"Total consultations: 1", "Unique users: 1", "Average duration: 25.0 min", "Last 30 days: 1"} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q:\n%s", want, digest)
		}
	}
}
