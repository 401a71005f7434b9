// Package storage reads and writes workout artifacts in Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// StorageAdapter serves workout files (FIT, TCX, GPX) from the artifact
// bucket. Objects are small enough to hold in memory, so both directions
// work on whole byte slices rather than streams.
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if _, err := wc.Write(data); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", bucketName, objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucketName, objectName, err)
	}
	return data, nil
}
