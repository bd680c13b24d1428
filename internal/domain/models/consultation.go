package models

import "time"

// Consultation is one logged veterinary consultation for an exotic animal.
// Records are append-only; the reporting side only ever reads them.
type Consultation struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	UserID           int64     `gorm:"not null"`
	AnimalType       string    `gorm:"not null"`
	ConsultationDate time.Time `gorm:"not null;index"`
	DurationMinutes  *int
}

// TableName keeps the historical table name used by the data-entry side.
func (Consultation) TableName() string { return "exotic_consultations" }

// ReportWindow is a closed time interval [Start, End] used to filter
// consultations for a report.
type ReportWindow struct {
	Start time.Time
	End   time.Time
}

// TypeCount pairs an animal type with its consultation count.
type TypeCount struct {
	AnimalType string
	Count      int64
}

// CategoryBreakdown is an ordered per-animal-type consultation count.
type CategoryBreakdown []TypeCount

// Empty reports whether the breakdown holds no categories.
func (b CategoryBreakdown) Empty() bool { return len(b) == 0 }

// Total sums the counts across all categories.
func (b CategoryBreakdown) Total() int64 {
	var total int64
	for _, tc := range b {
		total += tc.Count
	}
	return total
}

// SummaryStats aggregates the whole record set plus a fixed trailing
// 30-day slice. The last-month figures are always relative to the
// moment the summary is computed, never to a user-chosen window.
type SummaryStats struct {
	TotalConsultations int64
	UniqueUsers        int64
	AvgDuration        float64
	LastMonthCount     int64
	LastMonthAvg       float64
}
