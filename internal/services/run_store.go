package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/loglens/backend/internal/models"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("analysis run not found")

// RunStore persists analysis runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.LogFile) error
	GetRun(ctx context.Context, id string) (*models.LogFile, error)
	ListRuns(ctx context.Context, limit, offset int) ([]models.LogFile, int64, error)
	DeleteRun(ctx context.Context, id string) error
}

// GormRunStore keeps runs in postgres.
type GormRunStore struct {
	db *gorm.DB
}

func NewGormRunStore(db *gorm.DB) *GormRunStore {
	return &GormRunStore{db: db}
}

func (s *GormRunStore) SaveRun(ctx context.Context, run *models.LogFile) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *GormRunStore) GetRun(ctx context.Context, id string) (*models.LogFile, error) {
	var run models.LogFile
	err := s.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries.Summary").
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs without their entries, newest first.
func (s *GormRunStore) ListRuns(ctx context.Context, limit, offset int) ([]models.LogFile, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.LogFile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []models.LogFile
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// DeleteRun removes the run, its entries and their summaries in one
// transaction. Nothing is kept behind a soft delete.
func (s *GormRunStore) DeleteRun(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run models.LogFile
		if err := tx.Select("id").First(&run, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return err
		}

		entryIDs := tx.Model(&models.LogEntry{}).Select("id").Where("log_file_id = ?", id)
		if err := tx.Where("log_entry_id IN (?)", entryIDs).Delete(&models.EntrySummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("log_file_id = ?", id).Delete(&models.LogEntry{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&run).Error
	})
}

// MemoryRunStore keeps runs in process memory. It is used when no database
// is configured.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*models.LogFile
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]*models.LogFile)}
}

func (s *MemoryRunStore) SaveRun(_ context.Context, run *models.LogFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryRunStore) GetRun(_ context.Context, id string) (*models.LogFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (s *MemoryRunStore) ListRuns(_ context.Context, limit, offset int) ([]models.LogFile, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]models.LogFile, 0, len(s.runs))
	for _, r := range s.runs {
		run := *r
		run.Entries = nil
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	total := int64(len(runs))
	if offset >= len(runs) {
		return []models.LogFile{}, total, nil
	}
	runs = runs[offset:]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, total, nil
}

func (s *MemoryRunStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.runs, id)
	return nil
}
