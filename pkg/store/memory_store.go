package store

import (
	"sync"
	"time"

	"montchatsouvenir/pkg/domain"
)

// MemoryStore keeps the upload ledger in-process for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	uploads map[string]domain.Upload
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{uploads: make(map[string]domain.Upload)}
}

func (m *MemoryStore) SaveUpload(u domain.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.uploads[u.ID]; !exists {
		m.order = append(m.order, u.ID)
	}
	m.uploads[u.ID] = u
	return nil
}

func (m *MemoryStore) SetStatus(id string, status domain.UploadStatus, errMsg string, messageCount, participantCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[id]
	if !ok {
		return nil
	}
	u.Status = status
	u.ErrorMessage = errMsg
	u.MessageCount = messageCount
	u.ParticipantCount = participantCount
	u.UpdatedAt = time.Now().UTC()
	m.uploads[id] = u
	return nil
}

func (m *MemoryStore) GetUpload(id string) (domain.Upload, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.uploads[id]
	return u, ok, nil
}

func (m *MemoryStore) ListUploadsBySession(sessionID string) ([]domain.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Upload, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if u, ok := m.uploads[m.order[i]]; ok && u.SessionID == sessionID {
			res = append(res, u)
		}
	}
	return res, nil
}
