package uploadrecord

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/fitsync/exporter/pkg"
)

// FirestoreStore persists records under users/{uid}/upload_records/{base}.
// Each Upsert is a single merge-write of one document, so concurrent jobs
// touching different file base names never interfere.
type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

func (s *FirestoreStore) doc(userID, fileBaseName string) *firestore.DocumentRef {
	return s.Client.Collection(shared.CollectionUsers).Doc(userID).
		Collection(shared.CollectionUploadRecords).Doc(fileBaseName)
}

func (s *FirestoreStore) Upsert(ctx context.Context, userID string, rec Record) error {
	data := map[string]interface{}{
		"file_base_name": rec.FileBaseName,
		"updated_at":     time.Now(),
	}
	if rec.UploadID != 0 {
		data["upload_id"] = rec.UploadID
	}
	if rec.ActivityID != 0 {
		data["activity_id"] = rec.ActivityID
	}
	if rec.Status != "" {
		data["status"] = rec.Status
	}
	if rec.LastError != "" {
		data["last_error"] = rec.LastError
	}

	_, err := s.doc(userID, rec.FileBaseName).Set(ctx, data, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) Get(ctx context.Context, userID, fileBaseName string) (*Record, error) {
	snap, err := s.doc(userID, fileBaseName).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var rec Record
	if err := snap.DataTo(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
