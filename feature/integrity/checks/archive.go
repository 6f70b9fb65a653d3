package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"scan-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchiveReport describes the snapshot archive bucket.
type ArchiveReport struct {
	Bucket   string   `json:"bucket"`
	Prefix   string   `json:"prefix"`
	Exists   bool     `json:"exists"`
	Sessions []string `json:"sessions"`
}

// CheckArchive reports whether the bucket exists and which sessions have
// archived files under prefix.
func CheckArchive(ctx context.Context, client storage.Client, bucket, prefix string) (*ArchiveReport, error) {
	report := &ArchiveReport{
		Bucket:   bucket,
		Prefix:   prefix,
		Sessions: []string{},
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report.Exists = exists
	if !exists {
		return report, nil
	}

	listPrefix := strings.Trim(prefix, "/")
	if listPrefix != "" {
		listPrefix += "/"
	}
	opts := minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: false,
	}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", bucket, obj.Err)
		}
		// Non-recursive listings return one common prefix per session.
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		session := strings.TrimSuffix(strings.TrimPrefix(obj.Key, listPrefix), "/")
		if session != "" {
			report.Sessions = append(report.Sessions, session)
		}
	}
	sort.Strings(report.Sessions)
	return report, nil
}

// FixArchive creates the bucket.
func FixArchive(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger) error {
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Created archive bucket", zap.String("bucket", bucket))
	return nil
}
