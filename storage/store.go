package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"realestate-agent/models"
	"realestate-agent/utils"
)

// ErrNotFound is returned when a property or analysis does not exist.
var ErrNotFound = errors.New("not found")

const (
	defaultPropertyLimit = 100
	defaultHistoryLimit  = 10

	pqForeignKeyViolation = "23503"
)

// Store persists properties, search history and investment analyses.
type Store struct {
	db     *gorm.DB
	logger *utils.Logger
}

// Open connects to databaseURL ("sqlite://path", "sqlite://:memory:" or a
// postgres:// URL), waits for the database to answer and migrates the
// schema.
func Open(ctx context.Context, databaseURL string, logger *utils.Logger) (*Store, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: handle: %w", err)
	}
	if dialector.Name() == "sqlite" {
		// one writer; also keeps a :memory: database on a single connection
		sqlDB.SetMaxOpenConns(1)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "database-ping", sqlDB.PingContext); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage: ping failed after retries: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.Property{},
		&models.SearchHistory{},
		&models.InvestmentAnalysis{},
	); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	logger.Info("[storage] Connected to %s database", dialector.Name())
	return &Store{db: db, logger: logger}, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("storage: sqlite URL %q has no path", databaseURL)
		}
		return sqlite.Open(path + "?_foreign_keys=on"), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: databaseURL}), nil
	default:
		return nil, fmt.Errorf("storage: unsupported database URL %q (want sqlite:// or postgres://)", databaseURL)
	}
}

// Ping checks connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ── Properties ──────────────────────────────────────────────────────────

// CreateProperty inserts p and fills in its id and timestamps.
func (s *Store) CreateProperty(ctx context.Context, p *models.Property) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	if err != nil {
		return fmt.Errorf("storage: create property: %w", err)
	}
	s.logger.Debug("[storage] Created property: %d", p.ID)
	return nil
}

func (s *Store) GetPropertyByID(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get property %d: %w", id, err)
	}
	return &p, nil
}

// PropertyFilter narrows SearchProperties. Zero fields match everything.
type PropertyFilter struct {
	City         string
	PropertyType string
	MaxPrice     *decimal.Decimal
	Limit        int
}

// SearchProperties returns matching properties, newest first.
func (s *Store) SearchProperties(ctx context.Context, f PropertyFilter) ([]models.Property, error) {
	q := s.db.WithContext(ctx).Model(&models.Property{})
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", f.MaxPrice.InexactFloat64())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPropertyLimit
	}

	props := make([]models.Property, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&props).Error; err != nil {
		return nil, fmt.Errorf("storage: search properties: %w", err)
	}
	return props, nil
}

// UpdateProperty applies the set fields of upd to property id.
func (s *Store) UpdateProperty(ctx context.Context, id uint, upd models.PropertyUpdate) (*models.Property, error) {
	var p models.Property
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		upd.ApplyTo(&p)
		return tx.Save(&p).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: update property %d: %w", id, err)
	}
	s.logger.Info("[storage] Updated property: %d", id)
	return &p, nil
}

// DeleteProperty removes property id together with its analyses.
func (s *Store) DeleteProperty(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.InvestmentAnalysis{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Property{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: delete property %d: %w", id, err)
	}
	s.logger.Info("[storage] Deleted property: %d", id)
	return nil
}

// ── Search history ──────────────────────────────────────────────────────

func (s *Store) CreateSearchHistory(ctx context.Context, h *models.SearchHistory) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(h).Error
	})
	if err != nil {
		return fmt.Errorf("storage: create search history: %w", err)
	}
	return nil
}

// RecentSearchHistory returns the latest searches, newest first.
func (s *Store) RecentSearchHistory(ctx context.Context, limit int) ([]models.SearchHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows := make([]models.SearchHistory, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: recent search history: %w", err)
	}
	return rows, nil
}

// SaveSearch persists one search as a single write group: every property
// is attempted in its own savepoint and skipped on failure, then exactly
// one history row is written. props is updated in place with the ids of
// the rows that were stored. A history failure rolls back the whole group.
func (s *Store) SaveSearch(ctx context.Context, props []models.Property, h *models.SearchHistory) (int, error) {
	saved := 0
	originals := make([]models.Property, len(props))
	copy(originals, props)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range props {
			p := &props[i]
			err := tx.Transaction(func(inner *gorm.DB) error {
				return inner.Create(p).Error
			})
			if err != nil {
				s.logger.Warn("[storage] Skipping property %q: %v", p.BuildingName, err)
				*p = originals[i]
				continue
			}
			saved++
		}
		return tx.Create(h).Error
	})
	if err != nil {
		copy(props, originals)
		return 0, fmt.Errorf("storage: save search: %w", err)
	}

	s.logger.Info("[storage] Saved %d/%d properties and search history %d", saved, len(props), h.ID)
	return saved, nil
}

// ── Investment analyses ─────────────────────────────────────────────────

// CreateInvestmentAnalysis stores a for an existing property.
func (s *Store) CreateInvestmentAnalysis(ctx context.Context, a *models.InvestmentAnalysis) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Property{}).Where("id = ?", a.PropertyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return tx.Omit("Property").Create(a).Error
	})
	if errors.Is(err, ErrNotFound) || isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: create investment analysis: %w", err)
	}
	s.logger.Info("[storage] Created investment analysis: %d for property: %d", a.ID, a.PropertyID)
	return nil
}

// LatestAnalysisForProperty returns the current analysis of a property.
func (s *Store) LatestAnalysisForProperty(ctx context.Context, propertyID uint) (*models.InvestmentAnalysis, error) {
	var a models.InvestmentAnalysis
	err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").Order("id DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: latest analysis for %d: %w", propertyID, err)
	}
	return &a, nil
}

// AllAnalysesForProperty returns every analysis of a property, newest first.
func (s *Store) AllAnalysesForProperty(ctx context.Context, propertyID uint) ([]models.InvestmentAnalysis, error) {
	rows := make([]models.InvestmentAnalysis, 0)
	err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: analyses for %d: %w", propertyID, err)
	}
	return rows, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
