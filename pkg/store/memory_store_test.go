package store

import (
	"testing"
	"time"

	"montchatsouvenir/pkg/domain"
)

func upload(id, sessionID string, created time.Time) domain.Upload {
	return domain.Upload{
		ID:               id,
		SessionID:        sessionID,
		Platform:         domain.PlatformWhatsApp,
		OriginalFilename: "chat.txt",
		Status:           domain.UploadProcessing,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveUpload(upload("u1", "s1", time.Now().UTC())); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.GetUpload("u1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.SessionID != "s1" || got.Status != domain.UploadProcessing {
		t.Fatalf("unexpected upload: %+v", got)
	}
	if _, ok, _ := s.GetUpload("missing"); ok {
		t.Fatal("missing id should report ok=false")
	}
}

func TestMemoryStoreSetStatus(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SaveUpload(upload("u1", "s1", time.Now().UTC()))
	if err := s.SetStatus("u1", domain.UploadDone, "", 42, 2); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _, _ := s.GetUpload("u1")
	if got.Status != domain.UploadDone || got.MessageCount != 42 || got.ParticipantCount != 2 {
		t.Fatalf("status not applied: %+v", got)
	}
}

func TestMemoryStoreListNewestFirstPerSession(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now().UTC()
	_ = s.SaveUpload(upload("u1", "s1", base))
	_ = s.SaveUpload(upload("u2", "s1", base.Add(time.Second)))
	_ = s.SaveUpload(upload("u3", "other", base.Add(2*time.Second)))

	list, err := s.ListUploadsBySession("s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 uploads for s1, got %d", len(list))
	}
	if list[0].ID != "u2" || list[1].ID != "u1" {
		t.Fatalf("uploads should list newest first: %+v", list)
	}
}
