package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Store is the persistence gateway for cached gauge data and the API call/error logs.
// Every write is its own statement and commits immediately.
type Store struct {
	db     *gorm.DB
	clock  clockwork.Clock
	logger *slog.Logger
}

// Open connects to the configured database and runs Migrate. SQLite is
// limited to a single connection so the whole run shares one session and
// ":memory:" databases stay intact between statements.
func Open(driver, dsn string, clock clockwork.Clock, logger *slog.Logger) (*Store, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if dialector.Name() == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{db: db, clock: domain.ClockOrReal(clock), logger: logger}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite, "":
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ensureDir creates the parent directory of a file-backed SQLite DSN.
func ensureDir(dsn string) error {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}

// Migrate creates or updates every table. Safe to call on every startup.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	s.logger.Debug("database schema ready", "dialect", s.db.Dialector.Name())
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveGauges inserts one row per discovered gauge.
func (s *Store) SaveGauges(ctx context.Context, gauges []domain.Gauge) error {
	if len(gauges) == 0 {
		return nil
	}
	now := s.now()
	rows := make([]Gauge, len(gauges))
	for i, g := range gauges {
		rows[i] = Gauge{
			SiteNo:      g.SiteNo,
			StationName: g.StationName,
			Latitude:    g.Latitude,
			Longitude:   g.Longitude,
			CreatedAt:   now,
		}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("save gauges: %w", err)
	}
	return nil
}

// Latest returns the most recently fetched snapshot of kind for siteNo.
// The boolean is false when no row exists.
func (s *Store) Latest(ctx context.Context, kind domain.Kind, siteNo string) (domain.Snapshot, bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return domain.Snapshot{}, false, err
	}

	var row SnapshotModel
	err = s.db.WithContext(ctx).
		Table(table).
		Where("site_no = ?", siteNo).
		Order("fetched_at DESC").
		Order("id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load %s for %s: %w", kind, siteNo, err)
	}

	return domain.Snapshot{
		SiteNo:    row.SiteNo,
		Kind:      kind,
		Payload:   []byte(row.Payload),
		FetchedAt: row.FetchedAt,
	}, true, nil
}

// Insert adds a new snapshot row. Existing rows for the same gauge are left
// in place; Latest picks the newest.
func (s *Store) Insert(ctx context.Context, snap domain.Snapshot) error {
	table, err := tableFor(snap.Kind)
	if err != nil {
		return err
	}
	row := SnapshotModel{
		SiteNo:    snap.SiteNo,
		Payload:   datatypes.JSON(snap.Payload),
		FetchedAt: snap.FetchedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Table(table).Create(&row).Error; err != nil {
		return fmt.Errorf("insert %s for %s: %w", snap.Kind, snap.SiteNo, err)
	}
	return nil
}

// LogCall records a successful request to endpoint for dataType.
func (s *Store) LogCall(ctx context.Context, endpoint, dataType string) error {
	row := APICall{Endpoint: endpoint, DataType: dataType, CalledAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("log api call: %w", err)
	}
	return nil
}

// LogError records a failed request to endpoint.
func (s *Store) LogError(ctx context.Context, endpoint, message string) error {
	row := APIErrorLog{Endpoint: endpoint, ErrorMessage: message, LoggedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("log api error: %w", err)
	}
	return nil
}

// CalledWithin reports whether endpoint was called for dataType at any time
// in [now-window, now].
func (s *Store) CalledWithin(ctx context.Context, endpoint, dataType string, window time.Duration) (bool, error) {
	now := s.now()
	var count int64
	err := s.db.WithContext(ctx).
		Model(&APICall{}).
		Where("endpoint = ? AND data_type = ?", endpoint, dataType).
		Where("called_at >= ? AND called_at <= ?", now.Add(-window), now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check recent api calls: %w", err)
	}
	return count > 0, nil
}

// CountCalls returns the number of logged calls for endpoint and dataType.
func (s *Store) CountCalls(ctx context.Context, endpoint, dataType string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&APICall{}).
		Where("endpoint = ? AND data_type = ?", endpoint, dataType).
		Count(&count).Error
	return count, err
}

// CountErrors returns the number of logged errors for endpoint.
func (s *Store) CountErrors(ctx context.Context, endpoint string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&APIErrorLog{}).
		Where("endpoint = ?", endpoint).
		Count(&count).Error
	return count, err
}

// CountSnapshots returns the number of cached rows of kind for siteNo.
func (s *Store) CountSnapshots(ctx context.Context, kind domain.Kind, siteNo string) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	err = s.db.WithContext(ctx).Table(table).Where("site_no = ?", siteNo).Count(&count).Error
	return count, err
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

func tableFor(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindDetails:
		return GaugeDetail{}.TableName(), nil
	case domain.KindStageflow:
		return GaugeStageflow{}.TableName(), nil
	case domain.KindReach:
		return GaugeReach{}.TableName(), nil
	case domain.KindHistoricalForecast:
		return GaugeHistoricalForecast{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown data kind %q", kind)
	}
}
