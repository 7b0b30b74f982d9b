package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"montchatsouvenir/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UploadModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUpload stores or updates an upload record.
func (s *GormStore) SaveUpload(u domain.Upload) error {
	model := uploadToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "error_message", "message_count", "participant_count", "updated_at"}),
	}).Create(&model).Error
}

// SetStatus updates the outcome of a finished run.
func (s *GormStore) SetStatus(id string, status domain.UploadStatus, errMsg string, messageCount, participantCount int) error {
	return s.db.Model(&UploadModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            string(status),
			"error_message":     errMsg,
			"message_count":     messageCount,
			"participant_count": participantCount,
			"updated_at":        time.Now().UTC(),
		}).Error
}

// GetUpload returns one upload by ID.
func (s *GormStore) GetUpload(id string) (domain.Upload, bool, error) {
	var model UploadModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Upload{}, false, nil
		}
		return domain.Upload{}, false, err
	}
	return uploadFromModel(model), true, nil
}

// ListUploadsBySession returns a session's uploads, newest first.
func (s *GormStore) ListUploadsBySession(sessionID string) ([]domain.Upload, error) {
	var models []UploadModel
	if err := s.db.Where("session_id = ?", sessionID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Upload, 0, len(models))
	for _, m := range models {
		res = append(res, uploadFromModel(m))
	}
	return res, nil
}
