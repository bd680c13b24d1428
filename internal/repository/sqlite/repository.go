package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/exovet/supportbot/internal/domain/models"
)

// ErrStoreUnavailable marks failures where the consultation store could
// not be reached or queried. No partial results accompany it.
var ErrStoreUnavailable = errors.New("consultation store unavailable")

// Repository defines the read-oriented interface over consultation records.
// A nil window means "all time".
type Repository interface {
	CountAll(ctx context.Context) (int64, error)
	CountDistinctUsers(ctx context.Context) (int64, error)
	CountInWindow(ctx context.Context, window models.ReportWindow) (int64, error)
	AverageDuration(ctx context.Context, window *models.ReportWindow) (float64, error)
	BreakdownByType(ctx context.Context, window *models.ReportWindow) (models.CategoryBreakdown, error)
	Insert(ctx context.Context, record *models.Consultation) error
}

// SQLiteRepository implements Repository on a local SQLite file via gorm.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository opens (creating if needed) the SQLite database at
// path and migrates the consultation table.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	cleaned := strings.TrimSpace(path)
	if cleaned == "" {
		cleaned = "support_bot.db"
	}

	if err := ensureParentDir(cleaned); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}

	gdb, err := gorm.Open(gormsqlite.Open(cleaned), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := gdb.AutoMigrate(&models.Consultation{}); err != nil {
		return nil, fmt.Errorf("migrate consultation table: %w", err)
	}

	return &SQLiteRepository{db: gdb}, nil
}

// NewWithDB wraps an already-open gorm handle. Used by tests with an
// in-memory database.
func NewWithDB(gdb *gorm.DB) *SQLiteRepository {
	return &SQLiteRepository{db: gdb}
}

// CountAll returns the total number of consultation records.
func (r *SQLiteRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Consultation{}).Count(&total).Error; err != nil {
		return 0, storeErr("count consultations", err)
	}
	return total, nil
}

// CountDistinctUsers returns how many distinct users requested consultations.
func (r *SQLiteRepository) CountDistinctUsers(ctx context.Context) (int64, error) {
	var users int64
	if err := r.db.WithContext(ctx).
		Model(&models.Consultation{}).
		Distinct("user_id").
		Count(&users).Error; err != nil {
		return 0, storeErr("count distinct users", err)
	}
	return users, nil
}

// CountInWindow returns the number of consultations inside the window.
func (r *SQLiteRepository) CountInWindow(ctx context.Context, window models.ReportWindow) (int64, error) {
	var count int64
	if err := r.windowed(ctx, &window).Count(&count).Error; err != nil {
		return 0, storeErr("count consultations in window", err)
	}
	return count, nil
}

// AverageDuration returns the mean duration in minutes over the window,
// 0 when no rows match. Rows with no recorded duration are ignored by AVG.
func (r *SQLiteRepository) AverageDuration(ctx context.Context, window *models.ReportWindow) (float64, error) {
	var avg float64
	if err := r.windowed(ctx, window).
		Select("COALESCE(AVG(duration_minutes), 0)").
		Scan(&avg).Error; err != nil {
		return 0, storeErr("average consultation duration", err)
	}
	return avg, nil
}

// BreakdownByType returns per-animal-type counts over the window,
// ordered by count descending for stable presentation.
func (r *SQLiteRepository) BreakdownByType(ctx context.Context, window *models.ReportWindow) (models.CategoryBreakdown, error) {
	var rows []models.TypeCount
	if err := r.windowed(ctx, window).
		Select("animal_type, COUNT(*) AS count").
		Group("animal_type").
		Order("count DESC, animal_type ASC").
		Scan(&rows).Error; err != nil {
		return nil, storeErr("breakdown by animal type", err)
	}
	return models.CategoryBreakdown(rows), nil
}

// Insert appends a consultation record. Only the seed path writes.
func (r *SQLiteRepository) Insert(ctx context.Context, record *models.Consultation) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return storeErr("insert consultation", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *SQLiteRepository) windowed(ctx context.Context, window *models.ReportWindow) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Consultation{})
	if window != nil {
		query = query.Where("consultation_date >= ? AND consultation_date <= ?", window.Start, window.End)
	}
	return query
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
