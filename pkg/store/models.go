package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"montchatsouvenir/pkg/domain"
)

// UploadModel is the database row for one extraction run.
type UploadModel struct {
	ID               string `gorm:"primaryKey"`
	SessionID        string `gorm:"index"`
	Platform         string
	OriginalFilename string
	SizeBytes        int64
	Status           string
	ErrorMessage     string
	MessageCount     int
	ParticipantCount int
	Filters          datatypes.JSON
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (UploadModel) TableName() string {
	return "uploads"
}

func uploadToModel(u domain.Upload) UploadModel {
	filters, _ := json.Marshal(u.Filters)
	return UploadModel{
		ID:               u.ID,
		SessionID:        u.SessionID,
		Platform:         string(u.Platform),
		OriginalFilename: u.OriginalFilename,
		SizeBytes:        u.SizeBytes,
		Status:           string(u.Status),
		ErrorMessage:     u.ErrorMessage,
		MessageCount:     u.MessageCount,
		ParticipantCount: u.ParticipantCount,
		Filters:          datatypes.JSON(filters),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func uploadFromModel(m UploadModel) domain.Upload {
	var filters domain.FilterOptions
	_ = json.Unmarshal(m.Filters, &filters)
	return domain.Upload{
		ID:               m.ID,
		SessionID:        m.SessionID,
		Platform:         domain.Platform(m.Platform),
		OriginalFilename: m.OriginalFilename,
		SizeBytes:        m.SizeBytes,
		Status:           domain.UploadStatus(m.Status),
		ErrorMessage:     m.ErrorMessage,
		MessageCount:     m.MessageCount,
		ParticipantCount: m.ParticipantCount,
		Filters:          filters,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
