// Package uploadrecord tracks per-file upload state against the remote
// service: the upload transaction ID handed back on acceptance, the
// activity ID assigned once processing finishes, and status/error text.
//
// Records are keyed by file base name and never deleted automatically;
// they are the historical trail of everything we pushed out.
package uploadrecord

import (
	"context"
	"sync"
	"time"
)

// Record is one upload's persisted state.
type Record struct {
	FileBaseName string    `firestore:"file_base_name" json:"file_base_name"`
	UploadID     int64     `firestore:"upload_id" json:"upload_id"`
	ActivityID   int64     `firestore:"activity_id" json:"activity_id"`
	Status       string    `firestore:"status" json:"status"`
	LastError    string    `firestore:"last_error" json:"last_error"`
	UpdatedAt    time.Time `firestore:"updated_at" json:"updated_at"`
}

// Store persists upload records. Upsert merges only the set fields of rec
// into the existing record (zero UploadID/ActivityID and empty strings are
// left untouched), so writes are idempotent and a retried step can safely
// repeat them. Implementations must be safe for concurrent use by export
// jobs running for different file base names.
type Store interface {
	Upsert(ctx context.Context, userID string, rec Record) error
	Get(ctx context.Context, userID, fileBaseName string) (*Record, error)
}

// MemoryStore is the in-process Store used by tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]Record // userID -> fileBaseName -> record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]Record)}
}

func (s *MemoryStore) Upsert(ctx context.Context, userID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.records[userID]
	if user == nil {
		user = make(map[string]Record)
		s.records[userID] = user
	}

	cur := user[rec.FileBaseName]
	cur.FileBaseName = rec.FileBaseName
	if rec.UploadID != 0 {
		cur.UploadID = rec.UploadID
	}
	if rec.ActivityID != 0 {
		cur.ActivityID = rec.ActivityID
	}
	if rec.Status != "" {
		cur.Status = rec.Status
	}
	if rec.LastError != "" {
		cur.LastError = rec.LastError
	}
	cur.UpdatedAt = time.Now()
	user[rec.FileBaseName] = cur
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID, fileBaseName string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	rec, ok := user[fileBaseName]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}
