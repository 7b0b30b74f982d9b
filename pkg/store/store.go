// Package store persists the upload ledger: one record per extraction run.
package store

import "montchatsouvenir/pkg/domain"

// Store is the upload ledger interface.
type Store interface {
	SaveUpload(u domain.Upload) error
	SetStatus(id string, status domain.UploadStatus, errMsg string, messageCount, participantCount int) error
	GetUpload(id string) (domain.Upload, bool, error)
	ListUploadsBySession(sessionID string) ([]domain.Upload, error)
}
