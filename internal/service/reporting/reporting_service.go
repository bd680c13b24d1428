package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/exovet/supportbot/internal/domain/models"
	repo "github.com/exovet/supportbot/internal/repository/sqlite"
)

const dateLayout = "2006-01-02"

// ErrUnsupportedPeriod indicates a period filter with no fixed window length.
var ErrUnsupportedPeriod = errors.New("unsupported period filter")

// Service resolves report windows and computes consultation analytics.
type Service struct {
	repo   repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests that need deterministic windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// FixedWindow resolves a 7/30/365-day filter into [now - N days, now].
func (s *Service) FixedWindow(filter models.PeriodFilter) (models.ReportWindow, error) {
	days := filter.Days()
	if days == 0 {
		return models.ReportWindow{}, fmt.Errorf("%w: %s", ErrUnsupportedPeriod, filter)
	}

	end := s.now()
	return models.ReportWindow{Start: end.AddDate(0, 0, -days), End: end}, nil
}

// CustomWindow builds a window from two YYYY-MM-DD dates. The end
// boundary is inclusive of the whole end day (23:59:59).
func (s *Service) CustomWindow(startDate, endDate string) (models.ReportWindow, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return models.ReportWindow{}, err
	}

	end, err := ParseDate(endDate)
	if err != nil {
		return models.ReportWindow{}, err
	}

	return models.ReportWindow{
		Start: start,
		End:   end.Add(23*time.Hour + 59*time.Minute + 59*time.Second),
	}, nil
}

// ParseDate strictly parses a YYYY-MM-DD calendar date. Impossible
// dates such as 2024-02-30 are rejected.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return parsed, nil
}

// Summary computes the all-time statistics plus the fixed trailing
// 30-day figures. The last-month slice always ends at the current
// clock read regardless of any user-chosen window.
func (s *Service) Summary(ctx context.Context) (models.SummaryStats, error) {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return models.SummaryStats{}, err
	}

	users, err := s.repo.CountDistinctUsers(ctx)
	if err != nil {
		return models.SummaryStats{}, err
	}

	avg, err := s.repo.AverageDuration(ctx, nil)
	if err != nil {
		return models.SummaryStats{}, err
	}

	now := s.now()
	lastMonth := models.ReportWindow{Start: now.AddDate(0, 0, -30), End: now}

	monthCount, err := s.repo.CountInWindow(ctx, lastMonth)
	if err != nil {
		return models.SummaryStats{}, err
	}

	monthAvg, err := s.repo.AverageDuration(ctx, &lastMonth)
	if err != nil {
		return models.SummaryStats{}, err
	}

	return models.SummaryStats{
		TotalConsultations: total,
		UniqueUsers:        users,
		AvgDuration:        RoundDuration(avg),
		LastMonthCount:     monthCount,
		LastMonthAvg:       RoundDuration(monthAvg),
	}, nil
}

// WindowReport returns the per-animal-type breakdown and the rounded
// average duration for the window. An empty breakdown is a designed
// outcome, not an error; callers render "no data" instead of a chart.
func (s *Service) WindowReport(ctx context.Context, window models.ReportWindow) (models.CategoryBreakdown, float64, error) {
	breakdown, err := s.repo.BreakdownByType(ctx, &window)
	if err != nil {
		return nil, 0, err
	}

	if breakdown.Empty() {
		s.logger.Debug("window report has no records",
			zap.Time("start", window.Start), zap.Time("end", window.End))
		return breakdown, 0, nil
	}

	avg, err := s.repo.AverageDuration(ctx, &window)
	if err != nil {
		return nil, 0, err
	}

	return breakdown, RoundDuration(avg), nil
}

// AllTimeBreakdown returns per-animal-type counts over the whole record set.
func (s *Service) AllTimeBreakdown(ctx context.Context) (models.CategoryBreakdown, error) {
	return s.repo.BreakdownByType(ctx, nil)
}

// SummaryText renders the summary statistics as a chat-ready digest.
func (s *Service) SummaryText(ctx context.Context) (string, error) {
	stats, err := s.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("build summary digest: %w", err)
	}

	var b strings.Builder
	b.WriteString("Consultation summary\n")
	fmt.Fprintf(&b, "Total consultations: %d\n", stats.TotalConsultations)
	fmt.Fprintf(&b, "Unique users: %d\n", stats.UniqueUsers)
	fmt.Fprintf(&b, "Average duration: %.1f min\n", stats.AvgDuration)
	fmt.Fprintf(&b, "Last 30 days: %d consultations, %.1f min average", stats.LastMonthCount, stats.LastMonthAvg)
	return b.String(), nil
}

// FormatWindow renders a window's date range for reply text.
func FormatWindow(window models.ReportWindow) string {
	return fmt.Sprintf("%s - %s", window.Start.Format(dateLayout), window.End.Format(dateLayout))
}

// RoundDuration rounds to one decimal place, halves away from zero.
// Presentation-only; stored values are never rounded.
func RoundDuration(value float64) float64 {
	return math.Round(value*10) / 10
}
