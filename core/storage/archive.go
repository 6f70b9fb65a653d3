package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Archiver copies session files to a bucket.
type Archiver struct {
	client Client
	bucket string
	prefix string
	logger *zap.Logger

	sf singleflight.Group
}

// NewArchiver creates an archiver writing under prefix in bucket.
func NewArchiver(client Client, bucket, prefix string, logger *zap.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Bucket returns the archive bucket name.
func (a *Archiver) Bucket() string {
	return a.bucket
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("Created archive bucket", zap.String("bucket", a.bucket))
	return nil
}

// Key returns the object key of a session file.
func (a *Archiver) Key(sessionID, fileName string) string {
	return path.Join(a.prefix, sessionID, fileName)
}

// Upload stores a local file under the session's prefix and returns its key.
// Concurrent uploads of the same key share one transfer.
func (a *Archiver) Upload(ctx context.Context, sessionID, localPath string) (string, error) {
	key := a.Key(sessionID, filepath.Base(localPath))

	_, err, shared := a.sf.Do(key, func() (interface{}, error) {
		f, err := os.Open(localPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, err
		}

		_, err = a.client.PutObject(ctx, a.bucket, key, f, info.Size(), minio.PutObjectOptions{
			ContentType: contentType(localPath),
		})
		return nil, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	a.logger.Debug("Archived file",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Bool("shared", shared))
	return key, nil
}

// List returns the archived objects of a session sorted by key.
func (a *Archiver) List(ctx context.Context, sessionID string) ([]minio.ObjectInfo, error) {
	prefix := a.Key(sessionID, "") + "/"
	var objects []minio.ObjectInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Download copies an archived object to localPath. The file is written next
// to its destination and renamed once complete.
func (a *Archiver) Download(ctx context.Context, key, localPath string) (err error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer obj.Close()

	tmp := localPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(f, obj); err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, localPath)
}

// Remove deletes one archived object.
func (a *Archiver) Remove(ctx context.Context, key string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Prune keeps the newest keep objects of a session whose names end in suffix
// and deletes the rest. It returns the number of deleted objects.
func (a *Archiver) Prune(ctx context.Context, sessionID, suffix string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	objects, err := a.List(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	var matching []minio.ObjectInfo
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, suffix) {
			matching = append(matching, obj)
		}
	}
	if len(matching) <= keep {
		return 0, nil
	}
	stale := matching[:len(matching)-keep]

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, obj := range stale {
		objectsCh <- obj
	}
	close(objectsCh)

	var failed int
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		a.logger.Warn("Failed to prune archived object",
			zap.String("key", rerr.ObjectName),
			zap.Error(rerr.Err))
	}
	return len(stale) - failed, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
