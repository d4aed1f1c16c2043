package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"dashboard-service/pkg/logger"
	"dashboard-service/pkg/models"

	"github.com/minio/minio-go/v7"
)

const (
	systemLogsPrefix = "system-logs"
	snapshotsPrefix  = "snapshots"
	compressionLevel = gzip.BestSpeed
)

// ObjectPutter is the upload half of *minio.Client.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// LogSource yields system logs newer than a watermark id.
type LogSource interface {
	SystemLogsSince(ctx context.Context, afterID int) ([]models.SystemLog, error)
	Now() time.Time
}

// SnapshotSource builds the current dashboard snapshot.
type SnapshotSource interface {
	RealtimeData(ctx context.Context) (models.RealtimeData, error)
}

// ArchiveResult describes one archival run.
type ArchiveResult struct {
	LogsArchived   int
	LogsObject     string
	SnapshotObject string
}

// Archiver exports system logs and dashboard snapshots to object storage as
// gzip-compressed JSON lines. Each run uploads only logs added since the
// previous successful run.
type Archiver struct {
	client    ObjectPutter
	bucket    string
	logs      LogSource
	snapshots SnapshotSource

	mu        sync.Mutex
	watermark int
}

func NewArchiver(client ObjectPutter, bucket string, logs LogSource, snapshots SnapshotSource) *Archiver {
	return &Archiver{
		client:    client,
		bucket:    bucket,
		logs:      logs,
		snapshots: snapshots,
	}
}

// Archive uploads pending logs and the current snapshot.
func (a *Archiver) Archive(ctx context.Context) (ArchiveResult, error) {
	var res ArchiveResult

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.logs.Now().UTC()

	pending, err := a.logs.SystemLogsSince(ctx, a.watermark)
	if err != nil {
		return res, fmt.Errorf("failed to read system logs: %w", err)
	}

	if len(pending) > 0 {
		name := ObjectName(systemLogsPrefix, now)
		if err := putJSONLines(ctx, a, name, pending); err != nil {
			return res, err
		}
		a.watermark = pending[len(pending)-1].ID
		res.LogsArchived = len(pending)
		res.LogsObject = name
	}

	snapshot, err := a.snapshots.RealtimeData(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to build snapshot: %w", err)
	}
	name := ObjectName(snapshotsPrefix, now)
	if err := putJSONLines(ctx, a, name, []models.RealtimeData{snapshot}); err != nil {
		return res, err
	}
	res.SnapshotObject = name

	logger.Info("Archived dashboard data",
		logger.Int("logs", res.LogsArchived),
		logger.String("snapshot_object", res.SnapshotObject),
	)
	return res, nil
}

func putJSONLines[T any](ctx context.Context, a *Archiver, objectName string, items []T) error {
	buf, err := EncodeJSONLines(items)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, a.bucket, objectName, buf, int64(buf.Len()),
		minio.PutObjectOptions{
			ContentType:     "application/gzip",
			ContentEncoding: "gzip",
		})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}

// ObjectName formats {prefix}/{yyyy}/{mm}/{dd}/{hhmmss}.json.gz.
func ObjectName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s/%s.json.gz", prefix, at.UTC().Format("2006/01/02/150405"))
}

// EncodeJSONLines writes items as gzip-compressed JSON lines.
func EncodeJSONLines[T any](items []T) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	gzipWriter, err := gzip.NewWriterLevel(&buf, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			gzipWriter.Close()
			return nil, fmt.Errorf("failed to marshal archive entry: %w", err)
		}
		if _, err := gzipWriter.Write(append(line, '\n')); err != nil {
			gzipWriter.Close()
			return nil, fmt.Errorf("failed to write archive entry: %w", err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return &buf, nil
}
