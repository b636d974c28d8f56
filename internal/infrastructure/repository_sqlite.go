package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/mediavault/internal/domain"
)

// OpenDatabase opens the sqlite database and migrates the full schema.
// Jobs and the catalog share one database file.
func OpenDatabase(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Job{},
		&domain.Platform{},
		&domain.Profile{},
		&domain.Media{},
		&domain.Tag{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// CloseDatabase closes the underlying sql connection
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLiteJobRepository implements domain.JobRepository using sqlite
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository creates a job repository on an open database
func NewSQLiteJobRepository(db *gorm.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

// Create persists a new job
func (r *SQLiteJobRepository) Create(job *domain.Job) error {
	return r.db.Create(job).Error
}

// Update persists the current state of an existing job
func (r *SQLiteJobRepository) Update(job *domain.Job) error {
	return r.db.Save(job).Error
}

// Delete removes a job by ID
func (r *SQLiteJobRepository) Delete(id string) error {
	return r.db.Delete(&domain.Job{}, "id = ?", id).Error
}

// FindByID finds a job by ID
func (r *SQLiteJobRepository) FindByID(id string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// FindActive returns all non-completed jobs in creation order. Used by
// the startup recovery procedure.
func (r *SQLiteJobRepository) FindActive() ([]*domain.Job, error) {
	var jobs []*domain.Job
	err := r.db.Where("status <> ?", domain.JobCompleted).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// FindAll returns every persisted job in creation order
func (r *SQLiteJobRepository) FindAll() ([]*domain.Job, error) {
	var jobs []*domain.Job
	err := r.db.Order("created_at ASC").Find(&jobs).Error
	return jobs, err
}
